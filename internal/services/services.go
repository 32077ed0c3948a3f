// package services defines the [Catalog] interface for the external music catalog and implements it for Spotify
package services

import (
	"context"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/tasks"
)

// Catalog defines the catalog operations used to curate and publish playlists.
//
// Every operation acts for the user identified by sess.
type Catalog interface {
	// Search finds tracks by free text. Results carry no audio features.
	Search(ctx context.Context, sess session.Session, q SearchQuery) ([]models.PlaylistTrack, error)

	// GetRecommendations returns previewable tracks near the seeds and targets, with audio features.
	GetRecommendations(ctx context.Context, sess session.Session, q RecommendationQuery) ([]models.PlaylistTrack, error)

	// GetPlaylists lists playlists this application created, newest first.
	GetPlaylists(ctx context.Context, sess session.Session, q PlaylistsQuery) (*PlaylistPage, error)

	// CreatePlaylist creates an external playlist, fills it and records it. Not idempotent.
	CreatePlaylist(ctx context.Context, sess session.Session, in CreatePlaylistInput) (*CreatedPlaylist, error)

	// CurrentUser returns the profile the session belongs to.
	CurrentUser(ctx context.Context, sess session.Session) (*SpotifyUser, error)
}

// SearchQuery parameters for [Catalog.Search]
type SearchQuery struct {
	Query  string
	Offset int `validate:"gte=0,lte=1000"`
	Limit  int `validate:"gte=0,lte=50"`
}

// RecommendationQuery parameters for [Catalog.GetRecommendations]
type RecommendationQuery struct {
	SeedIDs       []string `validate:"max=5"`
	Limit         int      `validate:"gte=1,lte=100"`
	AudioFeatures models.AudioFeatures
}

// Equal reports whether q and o would produce the same request.
func (q RecommendationQuery) Equal(o RecommendationQuery) bool {
	if q.Limit != o.Limit || len(q.SeedIDs) != len(o.SeedIDs) {
		return false
	}
	for i := range q.SeedIDs {
		if q.SeedIDs[i] != o.SeedIDs[i] {
			return false
		}
	}
	return q.AudioFeatures.Equal(o.AudioFeatures)
}

// PlaylistsQuery parameters for [Catalog.GetPlaylists]
type PlaylistsQuery struct {
	Limit       int `validate:"gte=1,lte=100"`
	Cursor      string
	CreatorOnly bool
}

// CreatePlaylistInput parameters for [Catalog.CreatePlaylist]
type CreatePlaylistInput struct {
	URIs        []string `validate:"min=1"`
	Name        string   `validate:"required"`
	Description string
	Public      bool

	// Progress receives non-blocking updates while tracks are appended. Optional.
	Progress chan<- tasks.ProgressUpdate `validate:"-"`
}

// PlaylistSummary describes a recorded playlist together with its current external state.
type PlaylistSummary struct {
	ID                   string                `json:"id"`
	ExternalID           string                `json:"externalId"`
	Name                 string                `json:"name"`
	Description          string                `json:"description"`
	CoverImage           *models.CoverImage    `json:"coverImage,omitempty"`
	ExternalURI          string                `json:"externalUri"`
	TrackCount           int                   `json:"trackCount"`
	AverageAudioFeatures *models.AudioFeatures `json:"averageAudioFeatures"`
	CreatedAt            time.Time             `json:"createdAt"`
}

// PlaylistPage is one page of [PlaylistSummary] values. NextCursor is empty on the last page.
type PlaylistPage struct {
	Items      []PlaylistSummary `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
	Total      int               `json:"total"`
}

// CreatedPlaylist identifies a newly created external playlist.
type CreatedPlaylist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	RecordID string `json:"recordId"`
}

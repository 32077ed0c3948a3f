package curation

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/features"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
)

// DefaultRecommendationLimit is how many recommendations a curation session asks for.
const DefaultRecommendationLimit = 15

// MixerOpts configures a [Mixer].
type MixerOpts struct {
	Limit  int
	Logger *log.Logger
}

// Mixer connects a [State] to the catalog for one user.
//
// It is not safe for concurrent use. Fetch may run elsewhere, but Dispatch, Apply and Submit belong to a single
// goroutine (the UI loop).
type Mixer struct {
	catalog services.Catalog
	sess    session.Session
	state   State
	display models.AudioFeatures
	limit   int
	logger  *log.Logger
}

// NewMixer creates a [Mixer] with an empty state.
func NewMixer(catalog services.Catalog, sess session.Session, opts MixerOpts) *Mixer {
	m := &Mixer{catalog: catalog, sess: sess, limit: opts.Limit, logger: opts.Logger}
	if m.limit <= 0 {
		m.limit = DefaultRecommendationLimit
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

func (m *Mixer) State() State {
	return m.state
}

func (m *Mixer) Limit() int {
	return m.limit
}

// Display returns the slider values: set targets, falling back to defaults computed from recommendations.
func (m *Mixer) Display() models.AudioFeatures {
	out := m.display.Clone()
	for _, f := range models.AllFeatures {
		if v, ok := m.state.AudioFeatures.Get(f); ok {
			out = out.With(f, v)
		}
	}
	return out
}

// Dispatch reduces a into the current state and returns the result.
func (m *Mixer) Dispatch(a Action) State {
	m.state = Reduce(m.state, a)
	return m.state
}

// Query derives the recommendation request for the current state.
func (m *Mixer) Query() services.RecommendationQuery {
	return services.RecommendationQuery{
		SeedIDs:       m.state.SeedIDs(),
		Limit:         m.limit,
		AudioFeatures: m.state.AudioFeatures.Clone(),
	}
}

// Search looks up seed candidates without touching state.
func (m *Mixer) Search(ctx context.Context, query string, offset, limit int) ([]models.PlaylistTrack, error) {
	return m.catalog.Search(ctx, m.sess, services.SearchQuery{Query: query, Offset: offset, Limit: limit})
}

// Fetch requests recommendations for q without touching state.
func (m *Mixer) Fetch(ctx context.Context, q services.RecommendationQuery) ([]models.PlaylistTrack, error) {
	return m.catalog.GetRecommendations(ctx, m.sess, q)
}

// Apply installs tracks fetched for q as the playlist and reports whether they were used.
//
// Results for a query that no longer matches the state are stale and ignored. After new seeds, the slider
// defaults become the average features of the results.
func (m *Mixer) Apply(q services.RecommendationQuery, tracks []models.PlaylistTrack) bool {
	if !q.Equal(m.Query()) {
		m.logger.Debug("dropping stale recommendations", "seeds", q.SeedIDs)
		return false
	}

	m.Dispatch(ReplacePlaylistTracks{Tracks: tracks})

	if m.state.HasNewTrackSeeds && len(tracks) > 0 {
		if avg, err := features.AverageTracks(tracks); err == nil {
			m.display = avg
		}
	}
	return true
}

// Refresh fetches recommendations for the current state and applies them.
func (m *Mixer) Refresh(ctx context.Context) error {
	q := m.Query()
	tracks, err := m.Fetch(ctx, q)
	if err != nil {
		return err
	}
	m.Apply(q, tracks)
	return nil
}

// Submit creates a playlist from the current tracks in order.
//
// This is not idempotent. A [services.PartialCreationError] means the playlist exists and must not be
// submitted again.
func (m *Mixer) Submit(ctx context.Context, name, description string, public bool, progress chan<- tasks.ProgressUpdate) (*services.CreatedPlaylist, error) {
	if len(m.state.PlaylistTracks) == 0 {
		return nil, shared.NewValidationError("tracks", "must not be empty")
	}

	uris := m.state.TrackURIs()
	created, err := m.catalog.CreatePlaylist(ctx, m.sess, services.CreatePlaylistInput{
		URIs:        uris,
		Name:        name,
		Description: description,
		Public:      public,
		Progress:    progress,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("playlist submitted", "id", created.ID, "tracks", len(uris))
	return created, nil
}

// Reset discards the state and slider defaults.
func (m *Mixer) Reset() {
	m.state = State{}
	m.display = models.AudioFeatures{}
}

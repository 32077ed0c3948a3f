package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/mixtape/internal/features"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
)

const playlistURLPrefix = "https://open.spotify.com/playlist/"

type createPlaylistBody struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description"`
}

type appendTracksBody struct {
	Position int      `json:"position"`
	URIs     []string `json:"uris"`
}

// GetPlaylists lists recorded playlists newest first, each enriched with its current name, cover and the
// average audio features of its tracks.
//
// One extra record is read to decide whether a next cursor exists. A playlist with no tracks has no average.
func (s *SpotifyService) GetPlaylists(ctx context.Context, sess session.Session, q PlaylistsQuery) (*PlaylistPage, error) {
	if err := shared.Validate(q); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: playlist store", shared.ErrMissingConfig)
	}

	var creatorID string
	if q.CreatorOnly {
		creatorID = sess.UserID()
	}

	records, err := s.store.Page(ctx, models.PageQuery{Limit: q.Limit + 1, Cursor: q.Cursor, CreatorID: creatorID})
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist records: %w", err)
	}

	page := &PlaylistPage{Items: make([]PlaylistSummary, 0, min(len(records), q.Limit))}
	if len(records) > q.Limit {
		records = records[:q.Limit]
		page.NextCursor = records[len(records)-1].ID()
	}

	for _, rec := range records {
		summary, err := s.summarize(ctx, sess, rec)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *summary)
	}

	total, err := s.store.Count(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count playlist records: %w", err)
	}
	page.Total = total
	return page, nil
}

func (s *SpotifyService) summarize(ctx context.Context, sess session.Session, rec *models.PlaylistRecord) (*PlaylistSummary, error) {
	path := "/playlists/" + url.PathEscape(rec.ExternalID())

	var pl SpotifyPlaylist
	if err := s.do(ctx, sess, tasks.Request{Method: http.MethodGet, Path: path}, &pl); err != nil {
		return nil, err
	}

	items, err := s.remainingPlaylistItems(ctx, sess, path, pl.Tracks)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.PlaylistTrack, 0, len(items))
	for _, item := range items {
		// removed and local items have no catalog id
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, toPlaylistTrack(*item.Track))
	}

	if err := s.attachAudioFeatures(ctx, sess, s.sequencer.WithProgress(nil, tasks.FetchAudioFeatures), tracks); err != nil {
		return nil, err
	}

	summary := &PlaylistSummary{
		ID:          rec.ID(),
		ExternalID:  rec.ExternalID(),
		Name:        pl.Name,
		Description: pl.Description,
		CoverImage:  coverImage(pl.Images),
		ExternalURI: pl.URI,
		TrackCount:  len(tracks),
		CreatedAt:   rec.CreatedAt(),
	}

	if len(tracks) > 0 {
		avg, err := features.AverageTracks(tracks)
		if err != nil {
			return nil, err
		}
		summary.AverageAudioFeatures = &avg
	}
	return summary, nil
}

// remainingPlaylistItems returns first's items followed by every later page, fetched in order.
func (s *SpotifyService) remainingPlaylistItems(ctx context.Context, sess session.Session, path string, first SpotifyPlaylistTracks) ([]SpotifyPlaylistTrack, error) {
	items := first.Items

	var reqs []tasks.Request
	for offset := len(first.Items); offset < first.Total; offset += pageSize {
		reqs = append(reqs, tasks.Request{
			Method: http.MethodGet,
			Path:   path + "/tracks",
			Query:  url.Values{"offset": {strconv.Itoa(offset)}, "limit": {strconv.Itoa(pageSize)}},
		})
	}
	if len(reqs) == 0 {
		return items, nil
	}

	pages, err := tasks.Collect[SpotifyPlaylistTracks](ctx, s.sequencer.WithProgress(nil, tasks.FetchPlaylistTracks), s.Executor(sess), reqs)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		items = append(items, p.Items...)
	}
	return items, nil
}

// CreatePlaylist creates a playlist owned by the session's user, appends in.URIs in order and records it.
//
// Once the external playlist exists, any later failure is returned as a [*PartialCreationError]. Nothing is
// rolled back, and calling again creates a second playlist.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, sess session.Session, in CreatePlaylistInput) (*CreatedPlaylist, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: playlist store", shared.ErrMissingConfig)
	}

	userID := sess.UserID()
	if userID == "" {
		return nil, unauthorized(errors.New("session has no user id"))
	}

	var pl SpotifyPlaylist
	create := tasks.Request{
		Method: http.MethodPost,
		Path:   "/users/" + url.PathEscape(userID) + "/playlists",
		Body:   createPlaylistBody{Name: in.Name, Public: in.Public, Description: in.Description},
	}
	if err := s.do(ctx, sess, create, &pl); err != nil {
		return nil, err
	}

	created := &CreatedPlaylist{ID: pl.ID, Name: pl.Name, URL: pl.ExternalURLs.Spotify}
	if created.URL == "" {
		created.URL = playlistURLPrefix + pl.ID
	}
	if created.Name == "" {
		created.Name = in.Name
	}
	tasks.SendProgress(in.Progress, tasks.CreatePlaylistUpdate(created.Name, created.URL))
	s.logger.Info("playlist created", "id", created.ID, "tracks", len(in.URIs))

	pages := shared.Chunk(in.URIs, pageSize)
	reqs := make([]tasks.Request, len(pages))
	for i, uris := range pages {
		reqs[i] = tasks.Request{
			Method: http.MethodPost,
			Path:   "/playlists/" + url.PathEscape(pl.ID) + "/tracks",
			Body:   appendTracksBody{Position: i * pageSize, URIs: uris},
		}
	}

	seq := s.sequencer.WithProgress(in.Progress, tasks.AppendTracks)
	if _, err := tasks.Collect[snapshotResponse](ctx, seq, s.Executor(sess), reqs); err != nil {
		appended := 0
		var batchErr *tasks.BatchError
		if errors.As(err, &batchErr) {
			for _, page := range pages[:batchErr.Index] {
				appended += len(page)
			}
		}
		return nil, &PartialCreationError{
			PlaylistID: created.ID, PlaylistURL: created.URL, Stage: StageAppend, Appended: appended, Err: err,
		}
	}

	rec, err := s.store.Append(ctx, created.ID, userID)
	if err != nil {
		return nil, &PartialCreationError{
			PlaylistID: created.ID, PlaylistURL: created.URL, Stage: StageRecord, Appended: len(in.URIs), Err: err,
		}
	}
	created.RecordID = rec.ID()
	tasks.SendProgress(in.Progress, tasks.RecordPlaylistUpdate(rec.ID()))

	return created, nil
}

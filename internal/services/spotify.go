// Spotify Web API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/features"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/desertthunder/mixtape/internal/tasks"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// pageSize is the fixed batch size of bulk endpoints (audio features, track append, playlist tracks).
	pageSize = 100
	// recommendationPool is always requested in full so preview filtering has room.
	recommendationPool = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	PreviewURL *string         `json:"preview_url"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAudioFeatures on the service's 0.0-1.0 scale.
type SpotifyAudioFeatures struct {
	ID               string   `json:"id"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Valence          *float64 `json:"valence"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Tempo            *float64 `json:"tempo"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for removed content.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistTracks is a page of playlist items.
type SpotifyPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyPlaylist represents a full Spotify playlist including its first page of tracks.
type SpotifyPlaylist struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Public       bool                  `json:"public"`
	Tracks       SpotifyPlaylistTracks `json:"tracks"`
	Images       []SpotifyImage        `json:"images"`
	URI          string                `json:"uri"`
	ExternalURLs externalURLs          `json:"external_urls"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type recommendationsResponse struct {
	Tracks []SpotifyTrack `json:"tracks"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
}

type snapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Store      models.PlaylistStore
	Sequencer  *tasks.Sequencer
	Logger     *log.Logger
}

// SpotifyService implements [Catalog] against the Spotify Web API.
//
// The service is stateless with respect to users; each call authenticates with the session it is given.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	store      models.PlaylistStore
	sequencer  *tasks.Sequencer
	logger     *log.Logger
}

// NewSpotifyService creates a [SpotifyService]. Store is required for playlist listing and creation.
func NewSpotifyService(opts SpotifyOpts) *SpotifyService {
	s := &SpotifyService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		sequencer:  opts.Sequencer,
		logger:     opts.Logger,
	}
	if s.baseURL == "" {
		s.baseURL = spotifyBaseURL
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if s.sequencer == nil {
		s.sequencer = tasks.NewSequencer(tasks.SequencerOpts{Logger: opts.Logger})
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// NewSpotifyServiceFromConfig builds a [SpotifyService] from the catalog configuration.
func NewSpotifyServiceFromConfig(cfg shared.CatalogConfig, store models.PlaylistStore, logger *log.Logger) *SpotifyService {
	return NewSpotifyService(SpotifyOpts{
		BaseURL:    cfg.BaseURL,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		Store:      store,
		Sequencer:  tasks.NewSequencer(tasks.SequencerOpts{RateLimit: cfg.RateLimit, Logger: logger}),
		Logger:     logger,
	})
}

// Executor binds sess to the service so batches can run through the [tasks.Sequencer].
func (s *SpotifyService) Executor(sess session.Session) tasks.Executor {
	return tasks.ExecutorFunc(func(ctx context.Context, req tasks.Request, out any) error {
		return s.do(ctx, sess, req, out)
	})
}

// do performs an authenticated request and decodes a JSON response into out.
func (s *SpotifyService) do(ctx context.Context, sess session.Session, req tasks.Request, out any) error {
	token, err := sess.AccessToken(ctx)
	if err != nil {
		return unauthorized(err)
	}

	apiURL := s.baseURL + req.Path
	if len(req.Query) > 0 {
		apiURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, apiURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	s.logger.Debug("spotify request", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(resp, req)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func upstreamError(resp *http.Response, req tasks.Request) *UpstreamError {
	e := &UpstreamError{Status: resp.StatusCode, Method: req.Method, Path: req.Path}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return e
	}

	var body spotifyErrorBody
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		e.Message = body.Error.Message
	} else {
		e.Message = strings.TrimSpace(string(data))
	}
	return e
}

// CurrentUser retrieves the profile of the session's user.
func (s *SpotifyService) CurrentUser(ctx context.Context, sess session.Session) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.do(ctx, sess, tasks.Request{Method: http.MethodGet, Path: "/me"}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Search finds tracks matching q.Query.
//
// A blank query or zero limit returns an empty list without contacting Spotify.
func (s *SpotifyService) Search(ctx context.Context, sess session.Session, q SearchQuery) ([]models.PlaylistTrack, error) {
	if err := shared.Validate(q); err != nil {
		return nil, err
	}

	query := strings.TrimSpace(q.Query)
	if query == "" || q.Limit == 0 {
		return []models.PlaylistTrack{}, nil
	}

	req := tasks.Request{
		Method: http.MethodGet,
		Path:   "/search",
		Query: url.Values{
			"q":      {query},
			"type":   {"track"},
			"offset": {strconv.Itoa(q.Offset)},
			"limit":  {strconv.Itoa(q.Limit)},
		},
	}

	var resp searchResponse
	if err := s.do(ctx, sess, req, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.PlaylistTrack, 0, len(resp.Tracks.Items))
	for _, t := range resp.Tracks.Items {
		tracks = append(tracks, toPlaylistTrack(t))
	}
	return tracks, nil
}

// GetRecommendations returns up to q.Limit previewable tracks seeded by q.SeedIDs and steered by the set targets.
//
// The full candidate pool is always requested since tracks without previews are dropped before truncation.
// Each returned track carries its audio features on the 0-100 scale.
func (s *SpotifyService) GetRecommendations(ctx context.Context, sess session.Session, q RecommendationQuery) ([]models.PlaylistTrack, error) {
	if err := shared.Validate(q); err != nil {
		return nil, err
	}
	if len(q.SeedIDs) == 0 {
		return []models.PlaylistTrack{}, nil
	}

	params := url.Values{
		"seed_tracks": {strings.Join(q.SeedIDs, ",")},
		"limit":       {strconv.Itoa(recommendationPool)},
	}
	targets := features.ToUnit(q.AudioFeatures)
	for _, f := range models.AllFeatures {
		if v, ok := targets.Get(f); ok {
			params.Set("target_"+f.String(), strconv.FormatFloat(v, 'f', -1, 64))
		}
	}

	var resp recommendationsResponse
	if err := s.do(ctx, sess, tasks.Request{Method: http.MethodGet, Path: "/recommendations", Query: params}, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.PlaylistTrack, 0, q.Limit)
	for _, t := range resp.Tracks {
		if len(tracks) == q.Limit {
			break
		}
		if t.PreviewURL == nil || *t.PreviewURL == "" {
			continue
		}
		tracks = append(tracks, toPlaylistTrack(t))
	}

	if err := s.attachAudioFeatures(ctx, sess, s.sequencer, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// attachAudioFeatures looks up features for tracks in pages of 100 and merges them by id.
// Tracks Spotify has no analysis for keep unset features.
func (s *SpotifyService) attachAudioFeatures(ctx context.Context, sess session.Session, seq *tasks.Sequencer, tracks []models.PlaylistTrack) error {
	if len(tracks) == 0 {
		return nil
	}

	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}

	var reqs []tasks.Request
	for _, page := range shared.Chunk(ids, pageSize) {
		reqs = append(reqs, tasks.Request{
			Method: http.MethodGet,
			Path:   "/audio-features",
			Query:  url.Values{"ids": {strings.Join(page, ",")}},
		})
	}

	pages, err := tasks.Collect[audioFeaturesResponse](ctx, seq, s.Executor(sess), reqs)
	if err != nil {
		return err
	}

	byID := make(map[string]models.AudioFeatures, len(tracks))
	for _, page := range pages {
		for _, af := range page.AudioFeatures {
			if af == nil {
				continue
			}
			byID[af.ID] = af.toModel()
		}
	}

	for i := range tracks {
		if af, ok := byID[tracks[i].ID]; ok {
			tracks[i].AudioFeatures = af
		}
	}
	return nil
}

func (a SpotifyAudioFeatures) toModel() models.AudioFeatures {
	return features.FromUnit(models.AudioFeatures{
		Danceability:     a.Danceability,
		Energy:           a.Energy,
		Valence:          a.Valence,
		Instrumentalness: a.Instrumentalness,
		Tempo:            a.Tempo,
	})
}

func toPlaylistTrack(t SpotifyTrack) models.PlaylistTrack {
	track := models.PlaylistTrack{
		ID:         t.ID,
		URI:        t.URI,
		Name:       t.Name,
		AlbumName:  t.Album.Name,
		DurationMS: t.DurationMS,
		PreviewURL: t.PreviewURL,
		CoverImage: coverImage(t.Album.Images),
		Artists:    make([]string, 0, len(t.Artists)),
	}
	for _, a := range t.Artists {
		track.Artists = append(track.Artists, a.Name)
	}
	return track
}

// coverImage picks the first image, which Spotify orders widest first.
func coverImage(images []SpotifyImage) *models.CoverImage {
	if len(images) == 0 {
		return nil
	}
	img := images[0]
	return &models.CoverImage{URL: img.URL, Height: img.Height, Width: img.Width}
}

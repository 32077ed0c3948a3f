package curation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSession = session.StaticSession{User: "user-1", Token: "token-1"}

// spotifyRecommender fakes the recommendation and audio-features endpoints.
// Every fifth of 100 candidates has a preview; even positions in a lookup get danceability 0.4, odd ones 0.61.
func spotifyRecommender(t *testing.T, recommendCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recommendations", func(w http.ResponseWriter, r *http.Request) {
		recommendCalls.Add(1)
		var tracks []any
		for i := range 100 {
			var preview any
			if i%5 == 0 {
				preview = fmt.Sprintf("https://p.scdn.co/c%d", i)
			}
			tracks = append(tracks, map[string]any{
				"id":          fmt.Sprintf("c%d", i),
				"name":        fmt.Sprintf("Candidate %d", i),
				"uri":         fmt.Sprintf("spotify:track:c%d", i),
				"preview_url": preview,
				"artists":     []any{map[string]any{"name": "Artist"}},
				"album":       map[string]any{"name": "Album"},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tracks": tracks})
	})
	mux.HandleFunc("GET /audio-features", func(w http.ResponseWriter, r *http.Request) {
		var out []any
		for i, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
			d := 0.4
			if i%2 == 1 {
				d = 0.61
			}
			out = append(out, map[string]any{
				"id": id, "danceability": d, "energy": 0.9, "valence": 0.1, "instrumentalness": 0.0, "tempo": 128.0,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"audio_features": out})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestMixerRecommendationFlow(t *testing.T) {
	var calls atomic.Int32
	srv := spotifyRecommender(t, &calls)
	catalog := services.NewSpotifyService(services.SpotifyOpts{BaseURL: srv.URL})
	m := NewMixer(catalog, testSession, MixerOpts{Limit: 20})
	ctx := context.Background()

	state := m.Dispatch(SelectTrackSeed{Seed: seed("T1")})
	require.True(t, state.HasNewTrackSeeds)

	require.NoError(t, m.Refresh(ctx))
	assert.EqualValues(t, 1, calls.Load())

	state = m.State()
	require.Len(t, state.PlaylistTracks, 20)
	for _, tr := range state.PlaylistTracks {
		assert.True(t, tr.Previewable())
	}
	assert.True(t, state.HasNewTrackSeeds, "flag stays until targets are set")
	assert.True(t, state.AudioFeatures.Empty(), "defaults are display-only")

	display := m.Display()
	require.True(t, display.Complete())
	d, _ := display.Get(models.Danceability)
	assert.Equal(t, 50.0, d, "floor((10*40 + 10*61) / 20)")
	e, _ := display.Get(models.Energy)
	assert.Equal(t, 90.0, e)
	tempo, _ := display.Get(models.Tempo)
	assert.Equal(t, 128.0, tempo)

	state = m.Dispatch(SetAudioFeatures{Features: display.With(models.Energy, 30)})
	assert.False(t, state.HasNewTrackSeeds)

	q := m.Query()
	e, _ = q.AudioFeatures.Get(models.Energy)
	assert.Equal(t, 30.0, e)

	require.NoError(t, m.Refresh(ctx))
	d, _ = m.Display().Get(models.Danceability)
	assert.Equal(t, 50.0, d)
	e, _ = m.Display().Get(models.Energy)
	assert.Equal(t, 30.0, e, "set targets win over defaults")
}

func TestMixer(t *testing.T) {
	ctx := context.Background()

	t.Run("default limit", func(t *testing.T) {
		m := NewMixer(&tu.MockCatalog{}, testSession, MixerOpts{})
		assert.Equal(t, DefaultRecommendationLimit, m.Limit())
		assert.Equal(t, DefaultRecommendationLimit, m.Query().Limit)
	})

	t.Run("stale results are dropped", func(t *testing.T) {
		m := NewMixer(&tu.MockCatalog{}, testSession, MixerOpts{})
		m.Dispatch(SelectTrackSeed{Seed: seed("a")})
		stale := m.Query()

		m.Dispatch(SelectTrackSeed{Seed: seed("b")})
		applied := m.Apply(stale, []models.PlaylistTrack{tu.Track("x", models.AudioFeatures{})})

		assert.False(t, applied)
		assert.Empty(t, m.State().PlaylistTracks)
		assert.True(t, m.Display().Empty())
	})

	t.Run("empty results keep previous defaults", func(t *testing.T) {
		m := NewMixer(&tu.MockCatalog{}, testSession, MixerOpts{})
		m.Dispatch(SelectTrackSeed{Seed: seed("a")})
		m.Apply(m.Query(), []models.PlaylistTrack{tu.Track("x", models.AudioFeatures{Energy: models.Float(60)})})

		m.Dispatch(SelectTrackSeed{Seed: seed("b")})
		assert.True(t, m.Apply(m.Query(), nil))

		e, _ := m.Display().Get(models.Energy)
		assert.Equal(t, 60.0, e)
		assert.Empty(t, m.State().PlaylistTracks)
	})

	t.Run("fetch does not touch state", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			GetRecommendationsFunc: func(q services.RecommendationQuery) ([]models.PlaylistTrack, error) {
				return []models.PlaylistTrack{tu.Track("x", models.AudioFeatures{})}, nil
			},
		}
		m := NewMixer(catalog, testSession, MixerOpts{})
		m.Dispatch(SelectTrackSeed{Seed: seed("a")})
		before := m.State()

		tracks, err := m.Fetch(ctx, m.Query())
		require.NoError(t, err)
		assert.Len(t, tracks, 1)
		assert.Equal(t, before, m.State())
		assert.Equal(t, []string{"user-1"}, catalog.Users())
	})

	t.Run("search goes through the session", func(t *testing.T) {
		var got services.SearchQuery
		catalog := &tu.MockCatalog{
			SearchFunc: func(q services.SearchQuery) ([]models.PlaylistTrack, error) {
				got = q
				return []models.PlaylistTrack{tu.Track("x", models.AudioFeatures{})}, nil
			},
		}
		m := NewMixer(catalog, testSession, MixerOpts{})

		tracks, err := m.Search(ctx, "daft punk", 0, 20)
		require.NoError(t, err)
		assert.Len(t, tracks, 1)
		assert.Equal(t, services.SearchQuery{Query: "daft punk", Limit: 20}, got)
		assert.Equal(t, State{}, m.State())
	})

	t.Run("refresh error leaves state", func(t *testing.T) {
		boom := errors.New("upstream down")
		catalog := &tu.MockCatalog{
			GetRecommendationsFunc: func(q services.RecommendationQuery) ([]models.PlaylistTrack, error) { return nil, boom },
		}
		m := NewMixer(catalog, testSession, MixerOpts{})
		m.Dispatch(AddPlaylistTrack{Track: tu.Track("keep", models.AudioFeatures{})})

		assert.ErrorIs(t, m.Refresh(ctx), boom)
		assert.Len(t, m.State().PlaylistTracks, 1)
	})

	t.Run("submit sends uris in order", func(t *testing.T) {
		var got services.CreatePlaylistInput
		catalog := &tu.MockCatalog{
			CreatePlaylistFunc: func(in services.CreatePlaylistInput) (*services.CreatedPlaylist, error) {
				got = in
				return &services.CreatedPlaylist{ID: "pl-1", Name: in.Name}, nil
			},
		}
		m := NewMixer(catalog, testSession, MixerOpts{})
		m.Dispatch(ReplacePlaylistTracks{Tracks: []models.PlaylistTrack{
			tu.Track("a", models.AudioFeatures{}),
			tu.Track("b", models.AudioFeatures{}),
		}})
		m.Dispatch(AddPlaylistTrack{Track: tu.Track("c", models.AudioFeatures{})})

		created, err := m.Submit(ctx, "Road trip", "for the drive", true, nil)
		require.NoError(t, err)
		assert.Equal(t, "pl-1", created.ID)
		assert.Equal(t, []string{"spotify:track:c", "spotify:track:a", "spotify:track:b"}, got.URIs)
		assert.Equal(t, "Road trip", got.Name)
		assert.Equal(t, "for the drive", got.Description)
		assert.True(t, got.Public)

		m.Reset()
		assert.Empty(t, m.State().PlaylistTracks)
	})

	t.Run("submit without tracks", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		m := NewMixer(catalog, testSession, MixerOpts{})

		_, err := m.Submit(ctx, "Empty", "", false, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Empty(t, catalog.Calls())
	})
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	tu "github.com/desertthunder/mixtape/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// newTestRunner returns a runner with a mock catalog and a logged-in session, writing to the returned buffer.
func newTestRunner(catalog services.Catalog) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Catalog: catalog,
		Session: session.StaticSession{User: "user-1", Token: "token-1"},
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  out,
	})
	return r, out
}

func runApp(r *Runner, args ...string) error {
	app := &cli.Command{Name: "mixtape", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"mixtape"}, args...))
}

func TestSearchCommand(t *testing.T) {
	t.Run("uses the configured page size", func(t *testing.T) {
		var got services.SearchQuery
		catalog := &tu.MockCatalog{
			SearchFunc: func(q services.SearchQuery) ([]models.PlaylistTrack, error) {
				got = q
				return []models.PlaylistTrack{tu.Track("t1", models.AudioFeatures{})}, nil
			},
		}
		r, out := newTestRunner(catalog)

		require.NoError(t, runApp(r, "search", "--format", "json", "daft punk"))

		assert.Equal(t, services.SearchQuery{Query: "daft punk", Limit: 20}, got)
		var tracks []models.PlaylistTrack
		require.NoError(t, json.Unmarshal(out.Bytes(), &tracks))
		require.Len(t, tracks, 1)
		assert.Equal(t, "t1", tracks[0].ID)
		assert.Equal(t, []string{"user-1"}, catalog.Users())
	})

	t.Run("text output", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			SearchFunc: func(q services.SearchQuery) ([]models.PlaylistTrack, error) {
				return []models.PlaylistTrack{tu.Track("t1", models.AudioFeatures{})}, nil
			},
		}
		r, out := newTestRunner(catalog)

		require.NoError(t, runApp(r, "search", "--offset", "5", "--limit", "3", "daft punk"))
		assert.Contains(t, out.String(), `Results for "daft punk"`)
		assert.Contains(t, out.String(), "1. Artist t1 - Track t1")
	})

	t.Run("missing query", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r, _ := newTestRunner(catalog)

		err := runApp(r, "search")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
		assert.Empty(t, catalog.Calls())
	})

	t.Run("unknown format", func(t *testing.T) {
		r, _ := newTestRunner(&tu.MockCatalog{})
		assert.Error(t, runApp(r, "search", "--format", "xml", "daft punk"))
	})
}

func TestRecommendCommand(t *testing.T) {
	t.Run("seeds and targets", func(t *testing.T) {
		var got services.RecommendationQuery
		catalog := &tu.MockCatalog{
			GetRecommendationsFunc: func(q services.RecommendationQuery) ([]models.PlaylistTrack, error) {
				got = q
				return []models.PlaylistTrack{
					tu.Track("r1", models.AudioFeatures{Danceability: models.Float(70)}),
					tu.Track("r2", models.AudioFeatures{Danceability: models.Float(80)}),
				}, nil
			},
		}
		r, out := newTestRunner(catalog)

		err := runApp(r, "recommend",
			"--seed", "spotify:track:abc", "--seed", "def",
			"--danceability", "70", "--tempo", "120")
		require.NoError(t, err)

		assert.Equal(t, []string{"abc", "def"}, got.SeedIDs)
		assert.Equal(t, 15, got.Limit)
		d, ok := got.AudioFeatures.Get(models.Danceability)
		require.True(t, ok)
		assert.Equal(t, 70.0, d)
		tempo, _ := got.AudioFeatures.Get(models.Tempo)
		assert.Equal(t, 120.0, tempo)
		_, ok = got.AudioFeatures.Get(models.Energy)
		assert.False(t, ok, "unset flags stay unset")

		assert.Contains(t, out.String(), "Recommendations")
		assert.Contains(t, out.String(), "Tracks: 2")
	})

	t.Run("limit flag", func(t *testing.T) {
		var got services.RecommendationQuery
		catalog := &tu.MockCatalog{
			GetRecommendationsFunc: func(q services.RecommendationQuery) ([]models.PlaylistTrack, error) {
				got = q
				return nil, nil
			},
		}
		r, _ := newTestRunner(catalog)

		require.NoError(t, runApp(r, "recommend", "--seed", "a", "--limit", "40"))
		assert.Equal(t, 40, got.Limit)
	})

	t.Run("too many seeds", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r, _ := newTestRunner(catalog)

		args := []string{"recommend"}
		for i := range 6 {
			args = append(args, "--seed", fmt.Sprintf("s%d", i))
		}

		assert.ErrorIs(t, runApp(r, args...), shared.ErrInvalidInput)
		assert.Empty(t, catalog.Calls())
	})

	t.Run("out of range target", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r, _ := newTestRunner(catalog)

		err := runApp(r, "recommend", "--seed", "a", "--danceability", "150")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Danceability", verr.Field)
		assert.Empty(t, catalog.Calls())
	})

	t.Run("not logged in", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r := NewRunner(RunnerOpts{
			Config:  shared.DefaultConfig(),
			Catalog: catalog,
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Output:  &bytes.Buffer{},
		})

		assert.ErrorIs(t, runApp(r, "recommend", "--seed", "a"), shared.ErrNotAuthenticated)
		assert.Empty(t, catalog.Calls())
	})
}

func TestPlaylistsCommand(t *testing.T) {
	var got services.PlaylistsQuery
	catalog := &tu.MockCatalog{
		GetPlaylistsFunc: func(q services.PlaylistsQuery) (*services.PlaylistPage, error) {
			got = q
			return &services.PlaylistPage{
				Items: []services.PlaylistSummary{{
					ID:          "rec-2",
					Name:        "Road trip",
					ExternalURI: "spotify:playlist:p2",
					TrackCount:  12,
				}},
				NextCursor: "rec-2",
				Total:      3,
			}, nil
		},
	}
	r, out := newTestRunner(catalog)

	require.NoError(t, runApp(r, "playlists", "--mine", "--cursor", "rec-1", "--limit", "1"))

	assert.Equal(t, services.PlaylistsQuery{Limit: 1, Cursor: "rec-1", CreatorOnly: true}, got)
	assert.Contains(t, out.String(), "Mixtapes: 1 of 3")
	assert.Contains(t, out.String(), "1. Road trip (12 tracks) spotify:playlist:p2")
	assert.Contains(t, out.String(), "Next: --cursor rec-2")
}

func TestCreateCommand(t *testing.T) {
	t.Run("from uris", func(t *testing.T) {
		var got services.CreatePlaylistInput
		catalog := &tu.MockCatalog{
			CreatePlaylistFunc: func(in services.CreatePlaylistInput) (*services.CreatedPlaylist, error) {
				got = in
				return &services.CreatedPlaylist{ID: "p1", Name: in.Name, URL: "https://open.spotify.com/playlist/p1", RecordID: "rec-1"}, nil
			},
		}
		r, out := newTestRunner(catalog)

		err := runApp(r, "create", "--name", "Road trip", "--public",
			"--uri", "spotify:track:b", "--uri", "a", "--uri", "spotify:track:b")
		require.NoError(t, err)

		assert.Equal(t, []string{"spotify:track:b", "spotify:track:a"}, got.URIs, "repeats are dropped")
		assert.Equal(t, "Road trip", got.Name)
		assert.Equal(t, "Made with mixtape", got.Description)
		assert.True(t, got.Public)
		assert.Contains(t, out.String(), "✓ Created Road trip (2 tracks)")
		assert.Contains(t, out.String(), "https://open.spotify.com/playlist/p1")
	})

	t.Run("from seeds", func(t *testing.T) {
		var got services.CreatePlaylistInput
		catalog := &tu.MockCatalog{
			GetRecommendationsFunc: func(q services.RecommendationQuery) ([]models.PlaylistTrack, error) {
				return []models.PlaylistTrack{tu.Track("x", models.AudioFeatures{}), tu.Track("y", models.AudioFeatures{})}, nil
			},
			CreatePlaylistFunc: func(in services.CreatePlaylistInput) (*services.CreatedPlaylist, error) {
				got = in
				return &services.CreatedPlaylist{ID: "p1", Name: in.Name}, nil
			},
		}
		r, out := newTestRunner(catalog)

		require.NoError(t, runApp(r, "create", "--name", "Mix", "--json", "--seed", "abc", "--energy", "30"))

		assert.Equal(t, []string{"GetRecommendations", "CreatePlaylist"}, catalog.Calls())
		assert.Equal(t, []string{"spotify:track:x", "spotify:track:y"}, got.URIs)

		var created services.CreatedPlaylist
		require.NoError(t, json.Unmarshal(out.Bytes(), &created))
		assert.Equal(t, "p1", created.ID)
	})

	t.Run("needs uris or seeds", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r, _ := newTestRunner(catalog)

		assert.ErrorIs(t, runApp(r, "create", "--name", "Mix"), shared.ErrMissingArgument)
		assert.ErrorIs(t, runApp(r, "create", "--name", "Mix", "--uri", "a", "--seed", "b"), shared.ErrInvalidArgument)
		assert.Empty(t, catalog.Calls())
	})

	t.Run("empty recommendations", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r, _ := newTestRunner(catalog)

		err := runApp(r, "create", "--name", "Mix", "--seed", "abc")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, []string{"GetRecommendations"}, catalog.Calls())
	})

	t.Run("partial creation points at the playlist", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			CreatePlaylistFunc: func(in services.CreatePlaylistInput) (*services.CreatedPlaylist, error) {
				return nil, &services.PartialCreationError{
					PlaylistID:  "p1",
					PlaylistURL: "https://open.spotify.com/playlist/p1",
					Stage:       services.StageAppend,
					Appended:    100,
					Err:         errors.New("boom"),
				}
			},
		}
		r, out := newTestRunner(catalog)

		err := runApp(r, "create", "--name", "Mix", "--uri", "a")
		assert.ErrorIs(t, err, shared.ErrPartialCreation)
		assert.Contains(t, out.String(), "Do not retry")
		assert.Contains(t, out.String(), "https://open.spotify.com/playlist/p1")
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		r, out := newTestRunner(&tu.MockCatalog{})

		require.NoError(t, runApp(r, "setup", "config", "--config", path))
		tu.AssertFileExists(t, path)
		assert.Contains(t, tu.MustReadFile(t, path), "[credentials.spotify]")
		assert.Contains(t, out.String(), "✓ Config written")

		out.Reset()
		require.NoError(t, runApp(r, "setup", "config", "--config", path))
		assert.Contains(t, out.String(), "already exists")
	})

	t.Run("database", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "mixtape.db")
		require.NoError(t, shared.SaveConfig(path, config))

		out := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Logger: shared.NewLogger(&bytes.Buffer{}), Output: out})
		require.NoError(t, runApp(r, "setup", "database", "--config", path))

		tu.AssertFileExists(t, config.Database.Path)
		assert.Contains(t, out.String(), "✓ Database ready")

		out.Reset()
		require.NoError(t, runApp(r, "setup", "rollback", "--config", path))
		assert.Contains(t, out.String(), "✓ Rolled back")
	})
}

func TestAuthCommands(t *testing.T) {
	writeConfig := func(t *testing.T, refresh, user string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientID = "client"
		config.Credentials.Spotify.ClientSecret = "secret"
		config.Credentials.Spotify.RefreshToken = refresh
		config.Credentials.Spotify.UserID = user
		require.NoError(t, shared.SaveConfig(path, config))
		return path
	}

	fileRunner := func(catalog services.Catalog, sess session.Session) (*Runner, *bytes.Buffer) {
		out := &bytes.Buffer{}
		return NewRunner(RunnerOpts{
			Catalog: catalog,
			Session: sess,
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Output:  out,
		}), out
	}

	t.Run("status when logged out", func(t *testing.T) {
		t.Setenv(shared.EnvRefreshToken, "")
		path := writeConfig(t, "", "")
		catalog := &tu.MockCatalog{}
		r, out := fileRunner(catalog, nil)

		require.NoError(t, runApp(r, "auth", "status", "--config", path))
		assert.Contains(t, out.String(), "Client: ✓ client")
		assert.Contains(t, out.String(), "not logged in")
		assert.Empty(t, catalog.Calls())
	})

	t.Run("status checks the token", func(t *testing.T) {
		t.Setenv(shared.EnvRefreshToken, "")
		path := writeConfig(t, "refresh", "user-1")
		catalog := &tu.MockCatalog{
			CurrentUserFunc: func() (*services.SpotifyUser, error) {
				return &services.SpotifyUser{ID: "user-1", DisplayName: "Ada"}, nil
			},
		}
		r, out := fileRunner(catalog, session.StaticSession{User: "user-1", Token: "t"})

		require.NoError(t, runApp(r, "auth", "status", "--config", path))
		assert.Contains(t, out.String(), "Login: user-1")
		assert.Contains(t, out.String(), "Token: ✓ valid for Ada (user-1)")
	})

	t.Run("logout clears the saved login", func(t *testing.T) {
		t.Setenv(shared.EnvRefreshToken, "")
		path := writeConfig(t, "refresh", "user-1")
		r, out := fileRunner(&tu.MockCatalog{}, nil)

		require.NoError(t, runApp(r, "auth", "logout", "--config", path))
		assert.Contains(t, out.String(), "✓ Logged out")

		config, err := shared.LoadConfig(path)
		require.NoError(t, err)
		assert.Empty(t, config.Credentials.Spotify.RefreshToken)
		assert.Empty(t, config.Credentials.Spotify.UserID)
		assert.Equal(t, "client", config.Credentials.Spotify.ClientID)
	})
}

type fakeLogin struct {
	addr string
}

func (f *fakeLogin) AuthURL(state string) string {
	return fmt.Sprintf("http://%s/callback?state=%s&code=good", f.addr, state)
}

func (f *fakeLogin) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code != "good" {
		return nil, shared.ErrAuthFailed
	}
	return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestDoOAuth(t *testing.T) {
	addr := freeAddr(t)
	login := &fakeLogin{addr: addr}

	// the "browser" follows the authorization URL straight to the callback
	original := openBrowser
	openBrowser = func(u string) error {
		go func() {
			for range 100 {
				resp, err := http.Get(u)
				if err == nil {
					resp.Body.Close()
					return
				}
				time.Sleep(20 * time.Millisecond)
			}
		}()
		return nil
	}
	t.Cleanup(func() { openBrowser = original })

	config := shared.DefaultConfig()
	config.Credentials.Spotify.RedirectURI = "http://" + addr + "/callback"
	r, out := newTestRunner(&tu.MockCatalog{})

	tok, err := r.doOAuth(context.Background(), config, login)
	require.NoError(t, err)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.True(t, strings.Contains(out.String(), "Waiting for authorization"))

	t.Run("invalid redirect uri", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.RedirectURI = "not a url"

		_, err := r.doOAuth(context.Background(), config, login)
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})
}

func TestExplain(t *testing.T) {
	err := explain(shared.ErrNoRefreshToken)
	assert.ErrorIs(t, err, shared.ErrNoRefreshToken)
	assert.Contains(t, err.Error(), "auth login")

	other := errors.New("other")
	assert.Equal(t, other, explain(other))
}

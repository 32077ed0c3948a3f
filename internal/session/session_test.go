package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", r.Form.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testSpotifyConfig() shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "http://127.0.0.1:3000/callback",
	}
}

func TestAuthenticatorSession(t *testing.T) {
	t.Run("refreshes once and reuses the token", func(t *testing.T) {
		srv, hits := tokenServer(t, http.StatusOK, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
		auth := NewAuthenticator(testSpotifyConfig(), WithTokenURL(srv.URL))

		sess, err := auth.Session(context.Background(), "user-1", "refresh-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", sess.UserID())

		for range 3 {
			tok, err := sess.AccessToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "fresh", tok)
		}
		assert.EqualValues(t, 1, hits.Load())
	})

	t.Run("refresh failure", func(t *testing.T) {
		srv, _ := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		auth := NewAuthenticator(testSpotifyConfig(), WithTokenURL(srv.URL))

		sess, err := auth.Session(context.Background(), "user-1", "revoked")
		require.NoError(t, err)

		_, err = sess.AccessToken(context.Background())
		assert.ErrorIs(t, err, shared.ErrRefreshFailed)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		_, err := NewAuthenticator(testSpotifyConfig()).Session(context.Background(), "user-1", "")
		assert.ErrorIs(t, err, shared.ErrNoRefreshToken)
	})

	t.Run("auth url carries client and scopes", func(t *testing.T) {
		u := NewAuthenticator(testSpotifyConfig()).AuthURL("state-1")
		assert.True(t, strings.HasPrefix(u, "https://accounts.spotify.com/authorize"))
		assert.Contains(t, u, "client_id=client")
		assert.Contains(t, u, "state=state-1")
		assert.Contains(t, u, "playlist-modify-private")
	})
}

func TestStaticSession(t *testing.T) {
	tok, err := StaticSession{User: "u", Token: "t"}.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t", tok)

	_, err = StaticSession{User: "u"}.AccessToken(context.Background())
	assert.Error(t, err)
}

func TestCodec(t *testing.T) {
	t.Run("issue and parse", func(t *testing.T) {
		codec, err := NewCodec("secret", time.Hour)
		require.NoError(t, err)

		raw, err := codec.Issue("user-1", "refresh-1")
		require.NoError(t, err)

		claims, err := codec.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, "refresh-1", claims.RefreshToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		a, _ := NewCodec("secret-a", time.Hour)
		b, _ := NewCodec("secret-b", time.Hour)

		raw, err := a.Issue("user-1", "refresh-1")
		require.NoError(t, err)

		_, err = b.Parse(raw)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("expired", func(t *testing.T) {
		codec, _ := NewCodec("secret", time.Hour)
		codec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

		raw, err := codec.Issue("user-1", "refresh-1")
		require.NoError(t, err)

		_, err = codec.Parse(raw)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewCodec("", time.Hour)
		assert.ErrorIs(t, err, shared.ErrMissingConfig)
	})

	t.Run("from request", func(t *testing.T) {
		codec, _ := NewCodec("secret", time.Hour)

		req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
		_, err := codec.FromRequest(req)
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)

		raw, _ := codec.Issue("user-1", "refresh-1")
		req.AddCookie(codec.Cookie(raw, false))
		claims, err := codec.FromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
	})
}

// package session carries the authenticated Spotify identity through every catalog call
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mixtape/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Session identifies the user a catalog call acts for and supplies a bearer token for it.
type Session interface {
	// UserID is the Spotify user id owning created playlists.
	UserID() string

	// AccessToken returns a currently valid access token, refreshing it if needed.
	AccessToken(ctx context.Context) (string, error)
}

// Scopes requested on login. Playlist creation needs both modify scopes.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// TokenSession is a [Session] backed by an [oauth2.TokenSource].
type TokenSession struct {
	userID string
	source oauth2.TokenSource
}

// NewTokenSession wraps src, which should cache tokens until they expire (see [oauth2.ReuseTokenSource]).
func NewTokenSession(userID string, src oauth2.TokenSource) *TokenSession {
	return &TokenSession{userID: userID, source: src}
}

func (s *TokenSession) UserID() string {
	return s.userID
}

func (s *TokenSession) AccessToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tok, err := s.source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", shared.ErrRefreshFailed)
	}
	return tok.AccessToken, nil
}

// StaticSession is a [Session] with a fixed token. Useful for tests and short-lived scripts.
type StaticSession struct {
	User  string
	Token string
}

func (s StaticSession) UserID() string {
	return s.User
}

func (s StaticSession) AccessToken(ctx context.Context) (string, error) {
	if s.Token == "" {
		return "", errors.New("static session has no token")
	}
	return s.Token, nil
}

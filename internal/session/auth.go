package session

import (
	"context"
	"fmt"

	"github.com/desertthunder/mixtape/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Authenticator runs the Spotify authorization code flow and turns refresh tokens into sessions.
type Authenticator struct {
	auth   *spotifyauth.Authenticator
	config *oauth2.Config
}

// AuthenticatorOption customizes an [Authenticator].
type AuthenticatorOption func(*oauth2.Config)

// WithTokenURL points token refreshes at a different endpoint.
func WithTokenURL(u string) AuthenticatorOption {
	return func(c *oauth2.Config) {
		c.Endpoint.TokenURL = u
	}
}

// NewAuthenticator creates an [Authenticator] from the configured client credentials.
func NewAuthenticator(cfg shared.SpotifyConfig, opts ...AuthenticatorOption) *Authenticator {
	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithRedirectURL(cfg.RedirectURI),
			spotifyauth.WithScopes(Scopes...),
		),
		config: config,
	}
}

// AuthURL returns the URL the user visits to grant access.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange trades an authorization code for a token pair.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.auth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if tok.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	return tok, nil
}

// Session builds a refreshing [Session] for userID. The first call to AccessToken performs the refresh.
func (a *Authenticator) Session(ctx context.Context, userID, refreshToken string) (*TokenSession, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}
	return NewTokenSession(userID, a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})), nil
}

// SessionFromToken builds a [Session] seeded with an already exchanged token.
func (a *Authenticator) SessionFromToken(ctx context.Context, userID string, tok *oauth2.Token) *TokenSession {
	return NewTokenSession(userID, a.config.TokenSource(ctx, tok))
}

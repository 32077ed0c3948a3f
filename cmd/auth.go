package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// loginTimeout bounds how long `auth login` waits for the browser round trip.
const loginTimeout = 2 * time.Minute

var openBrowser = shared.OpenBrowser

// loginAuthenticator is the part of [session.Authenticator] the browser login uses.
type loginAuthenticator interface {
	server.Exchanger
	AuthURL(state string) string
}

// AuthLogin performs the OAuth2 authorization code flow and saves the refresh token and user id to the config file.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization, and exchanges the code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	auth, err := r.authenticator(config)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, config, auth)
	if err != nil {
		return err
	}

	catalog, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	user, err := catalog.CurrentUser(ctx, auth.SessionFromToken(ctx, "", token))
	if err != nil {
		return fmt.Errorf("failed to look up the Spotify user: %w", err)
	}

	config.Credentials.Spotify.RefreshToken = token.RefreshToken
	config.Credentials.Spotify.UserID = user.ID
	if err := shared.SaveConfig(r.configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.logger.Info("logged in", "user", user.ID)

	r.writePlainln("✓ Logged in as %s", displayName(user.DisplayName, user.ID))
	r.writePlain("✓ Refresh token saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: mixtape curate\n")
	return nil
}

// AuthStatus reports the saved login and verifies it with a profile lookup.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	spotify := config.Credentials.Spotify
	r.writePlainHeader("Spotify")

	if spotify.HasClient() {
		r.writePlain("Client: ✓ %s\n", spotify.ClientID)
	} else {
		r.writePlain("Client: ✗ not configured\n")
	}

	if !spotify.Authorized() {
		r.writePlain("Login: ✗ not logged in (run 'mixtape auth login')\n")
		return nil
	}
	r.writePlain("Login: %s\n", spotify.UserID)

	catalog, sess, err := r.prepare(ctx, cmd)
	if err != nil {
		return explain(err)
	}

	user, err := catalog.CurrentUser(ctx, sess)
	if err != nil {
		r.writePlain("Token: ✗ %v\n", err)
		return explain(err)
	}

	r.writePlain("Token: ✓ valid for %s\n", displayName(user.DisplayName, user.ID))
	return nil
}

// AuthLogout forgets the saved refresh token. Spotify grants stay until revoked in the account settings.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if !config.Credentials.Spotify.Authorized() {
		return r.writePlain("Not logged in\n")
	}

	config.Credentials.Spotify.RefreshToken = ""
	config.Credentials.Spotify.UserID = ""
	if err := shared.SaveConfig(r.configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.logger.Info("logged out")
	return r.writePlain("✓ Logged out\n")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, config *shared.Config, auth loginAuthenticator) (*oauth2.Token, error) {
	redirect, err := url.Parse(config.Credentials.Spotify.RedirectURI)
	if err != nil || redirect.Host == "" {
		return nil, fmt.Errorf("%w: redirect_uri %q", shared.ErrInvalidConfig, config.Credentials.Spotify.RedirectURI)
	}

	state := shared.GenerateID()
	authURL := auth.AuthURL(state)

	oauthHandler := server.NewOAuthHandler(auth, state, redirect.Path)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:              redirect.Host,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", redirect.Host)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
	}
	r.writePlain("If nothing opened, visit:\n%s\n\n", authURL)
	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

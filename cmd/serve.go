package main

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP JSON API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if config.Server.SessionSecret == "" || config.Server.SessionSecret == "change-me" {
		return fmt.Errorf("%w: set server.session_secret or %s", shared.ErrMissingConfig, shared.EnvSessionSecret)
	}

	codec, err := session.NewCodec(config.Server.SessionSecret, time.Duration(config.Server.SessionTTLHours)*time.Hour)
	if err != nil {
		return err
	}

	auth, err := r.authenticator(config)
	if err != nil {
		return err
	}

	catalog, err := r.loadCatalog(cmd)
	if err != nil {
		return err
	}

	callbackPath := ""
	if u, err := url.Parse(config.Credentials.Spotify.RedirectURI); err == nil {
		callbackPath = u.Path
	}

	srv, err := server.New(server.Options{
		Config:              config.Server,
		Catalog:             catalog,
		Auth:                auth,
		Codec:               codec,
		CallbackPath:        callbackPath,
		PageSize:            config.Catalog.PageSize,
		RecommendationLimit: config.Catalog.RecommendationLimit,
		Secure:              cmd.Bool("secure"),
		Logger:              shared.WithLogger(r.logger, "component", "server"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.writePlain("→ Serving on http://%s (Ctrl+C to stop)\n", config.Server.Addr())
	return srv.ListenAndServe(ctx)
}

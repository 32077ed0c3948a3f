package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
)

// Options configures [New].
type Options struct {
	Config              shared.ServerConfig
	Catalog             services.Catalog
	Auth                Authenticator
	Codec               *session.Codec
	CallbackPath        string // path of the registered redirect URI, "/auth/callback" by default
	PageSize            int
	RecommendationLimit int
	Secure              bool // set the Secure flag on cookies
	Logger              *log.Logger
}

// Server is the mixtape HTTP JSON API.
type Server struct {
	config   shared.ServerConfig
	router   *BasicRouter
	sessions *SessionCache
	logger   *log.Logger
}

// New wires every route onto a [BasicRouter].
func New(opts Options) (*Server, error) {
	if opts.Catalog == nil || opts.Auth == nil || opts.Codec == nil {
		return nil, fmt.Errorf("%w: server needs a catalog, authenticator and session codec", shared.ErrMissingConfig)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.CallbackPath == "" {
		opts.CallbackPath = "/auth/callback"
	}

	s := &Server{
		config:   opts.Config,
		router:   NewBasicRouter(),
		sessions: NewSessionCache(opts.Auth),
		logger:   opts.Logger,
	}

	api := NewAPIHandler(opts.Catalog, opts.PageSize, opts.RecommendationLimit, opts.Logger)
	auth := NewAuthHandler(opts.Auth, opts.Catalog, opts.Codec, opts.Secure, opts.Logger)
	requireSession := RequireSession(opts.Codec, s.sessions)

	s.router.Use(Recover(opts.Logger), Logging(opts.Logger))

	s.router.Handle(http.MethodGet, "/health", http.HandlerFunc(health))

	s.router.Handle(http.MethodGet, "/auth/login", http.HandlerFunc(auth.Login))
	s.router.Handle(http.MethodGet, opts.CallbackPath, http.HandlerFunc(auth.Callback))
	s.router.Handle(http.MethodPost, "/auth/logout", http.HandlerFunc(auth.Logout))

	s.router.Handle(http.MethodGet, "/api/search", http.HandlerFunc(api.Search),
		CacheFor(opts.Config.SearchCacheSeconds), requireSession)
	s.router.Handle(http.MethodGet, "/api/recommendations", http.HandlerFunc(api.Recommendations),
		NoStore(), requireSession)
	s.router.Handle(http.MethodGet, "/api/playlists", http.HandlerFunc(api.Playlists),
		NoStore(), requireSession)
	s.router.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(api.CreatePlaylist),
		NoStore(), requireSession)

	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

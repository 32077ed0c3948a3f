package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/repositories"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies not supplied through [RunnerOpts] are built on first use from the config named by --config.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	session    session.Session
	auth       *session.Authenticator
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	Session    session.Session
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		session:    opts.Session,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, searchCommand, recommendCommand, playlistsCommand, createCommand,
		curateCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database opened by [Runner.loadCatalog], if any.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// loadConfig reads the file named by --config, falling back to defaults plus MIXTAPE_* variables when it is absent.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	var config *shared.Config
	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		config = shared.DefaultConfig()
		config.ApplyEnv()
	}

	shared.SetLogLevelString(r.logger, config.Log.Level)
	r.config = config
	return config, nil
}

// authenticator builds the OAuth client from the configured credentials.
func (r *Runner) authenticator(config *shared.Config) (*session.Authenticator, error) {
	if r.auth != nil {
		return r.auth, nil
	}
	if !config.Credentials.Spotify.HasClient() {
		return nil, fmt.Errorf("%w: set credentials.spotify.client_id and client_secret in %s", shared.ErrMissingCredentials, r.configPath)
	}
	r.auth = session.NewAuthenticator(config.Credentials.Spotify)
	return r.auth, nil
}

// loadCatalog opens the playlist store and builds the Spotify catalog client.
func (r *Runner) loadCatalog(cmd *cli.Command) (services.Catalog, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db

	store := repositories.NewPlaylistRepository(db)
	r.catalog = services.NewSpotifyServiceFromConfig(config.Catalog, store, shared.WithLogger(r.logger, "service", "spotify"))
	return r.catalog, nil
}

// loadSession restores the login saved by `mixtape auth login`.
func (r *Runner) loadSession(ctx context.Context, cmd *cli.Command) (session.Session, error) {
	if r.session != nil {
		return r.session, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	spotify := config.Credentials.Spotify
	if !spotify.Authorized() {
		return nil, fmt.Errorf("%w: run `mixtape auth login` first", shared.ErrNotAuthenticated)
	}

	auth, err := r.authenticator(config)
	if err != nil {
		return nil, err
	}

	sess, err := auth.Session(ctx, spotify.UserID, spotify.RefreshToken)
	if err != nil {
		return nil, err
	}
	r.session = sess
	return sess, nil
}

// prepare loads the catalog and session every catalog command needs.
func (r *Runner) prepare(ctx context.Context, cmd *cli.Command) (services.Catalog, session.Session, error) {
	if _, err := r.loadConfig(cmd); err != nil {
		return nil, nil, err
	}
	catalog, err := r.loadCatalog(cmd)
	if err != nil {
		return nil, nil, err
	}
	sess, err := r.loadSession(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	return catalog, sess, nil
}

// explain adds a hint for errors users can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, shared.ErrNoRefreshToken), errors.Is(err, shared.ErrRefreshFailed):
		return fmt.Errorf("%w (run `mixtape auth login` again)", err)
	default:
		return err
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values loaded from the config file.
const (
	EnvClientID      = "MIXTAPE_SPOTIFY_CLIENT_ID"
	EnvClientSecret  = "MIXTAPE_SPOTIFY_CLIENT_SECRET"
	EnvRefreshToken  = "MIXTAPE_SPOTIFY_REFRESH_TOKEN"
	EnvSessionSecret = "MIXTAPE_SESSION_SECRET"
	EnvDatabasePath  = "MIXTAPE_DATABASE_PATH"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the stored login for CLI use.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri" default:"http://127.0.0.1:3000/callback" validate:"url"`
	RefreshToken string `toml:"refresh_token"`
	UserID       string `toml:"user_id"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" default:"./mixtape.db" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" default:"1" validate:"gte=1"`
	MaxIdleConns int    `toml:"max_idle_conns" default:"1" validate:"gte=0"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host               string `toml:"host" default:"127.0.0.1"`
	Port               int    `toml:"port" default:"3000" validate:"gte=1,lte=65535"`
	SessionSecret      string `toml:"session_secret"`
	SessionTTLHours    int    `toml:"session_ttl_hours" default:"720" validate:"gte=1"`
	SearchCacheSeconds int    `toml:"search_cache_seconds" validate:"gte=0"`
}

// CatalogConfig tunes the Spotify catalog client.
//
// RateLimit paces batched sub-requests in requests per second; 0 disables pacing.
type CatalogConfig struct {
	BaseURL             string  `toml:"base_url" default:"https://api.spotify.com/v1" validate:"url"`
	RateLimit           float64 `toml:"rate_limit" validate:"gte=0"`
	TimeoutSeconds      int     `toml:"timeout_seconds" default:"15" validate:"gte=1"`
	RecommendationLimit int     `toml:"recommendation_limit" default:"15" validate:"gte=1,lte=100"`
	PageSize            int     `toml:"page_size" default:"20" validate:"gte=1,lte=100"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" default:"info" validate:"oneof=debug info warn error"`
}

// Authorized reports whether a refresh token and user id are stored.
func (s SpotifyConfig) Authorized() bool {
	return s.RefreshToken != "" && s.UserID != ""
}

// HasClient reports whether client credentials are configured.
func (s SpotifyConfig) HasClient() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// Addr returns host:port for [http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Zero fields are filled from `default` tags, environment overrides are applied, and the result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := defaults.Set(&config); err != nil {
		panic(fmt.Sprintf("failed to apply config defaults: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes config to path as TOML, replacing the file.
//
// Used after a CLI login to persist the refresh token.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnv loads a .env file from the working directory if one exists.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overrides credentials and paths with MIXTAPE_* environment variables.
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	override(&c.Credentials.Spotify.ClientID, EnvClientID)
	override(&c.Credentials.Spotify.ClientSecret, EnvClientSecret)
	override(&c.Credentials.Spotify.RefreshToken, EnvRefreshToken)
	override(&c.Server.SessionSecret, EnvSessionSecret)
	override(&c.Database.Path, EnvDatabasePath)
}

// Validate checks the config against its `validate` tags.
func (c *Config) Validate() error {
	if err := Validate(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) finalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	c.ApplyEnv()
	return c.Validate()
}

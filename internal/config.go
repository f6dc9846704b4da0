package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tubenotes/internal/notestore"
	"github.com/starford/tubenotes/internal/retry"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Provider backends.
const (
	BackendYtdlp = "ytdlp"
	BackendAPI   = "api"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Notes    NotesConfig       `yaml:"notes"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Sync     SyncConfig        `yaml:"sync"`
	Provider ProviderConfig    `yaml:"provider"`
	Auth     AuthConfig        `yaml:"auth"`
	Schedule ScheduleConfig    `yaml:"schedule"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Provider.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Schedule.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NotesConfig holds the path to the notes directory (the vault).
type NotesConfig struct {
	Directory string `yaml:"directory"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Directory, validation.Required),
	)
}

// SQLiteConfig holds the record ledger location.
// An empty Path puts the ledger inside the notes directory.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ResolvePath returns the ledger path for the given notes directory.
func (c *SQLiteConfig) ResolvePath(notesDir string) string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(notesDir, notestore.LedgerDir, "records.db")
}

// SyncConfig holds run defaults.
type SyncConfig struct {
	ForceRefresh bool `yaml:"force_refresh"`
	Concurrency  int  `yaml:"concurrency"`
}

// Validate validates the sync configuration.
func (c *SyncConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(32)),
	)
}

// BackoffConfig holds the retry backoff curve.
type BackoffConfig struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
}

// ProviderConfig selects and tunes the metadata backend. The same backend
// resolves playlists.
type ProviderConfig struct {
	Backend        string        `yaml:"backend"`
	YtdlpPath      string        `yaml:"ytdlp_path"`
	APIKey         string        `yaml:"api_key"`
	Region         string        `yaml:"region"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MaxRetries     int           `yaml:"max_retries"`
	Backoff        BackoffConfig `yaml:"backoff"`
}

// Validate validates the provider configuration.
func (c *ProviderConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendYtdlp
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(BackendYtdlp, BackendAPI)),
		validation.Field(&c.YtdlpPath, validation.When(c.Backend == BackendYtdlp, validation.Required)),
		validation.Field(&c.APIKey, validation.When(c.Backend == BackendAPI, validation.Required)),
		validation.Field(&c.Region, validation.Length(2, 2)),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxRetries, validation.Min(0), validation.Max(10)),
	); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	b := c.Backoff
	if b.Initial <= 0 || b.Max < b.Initial || b.Multiplier < 1 {
		return errors.New("provider: backoff needs initial > 0, max >= initial and multiplier >= 1")
	}
	return nil
}

// Timeout returns the per-attempt fetch timeout.
func (c *ProviderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryConfig converts the retry settings.
func (c *ProviderConfig) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = c.MaxRetries
	cfg.InitialBackoff = c.Backoff.Initial
	cfg.MaxBackoff = c.Backoff.Max
	cfg.Multiplier = c.Backoff.Multiplier
	return cfg
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ScheduleConfig drives periodic re-syncs in serve mode.
type ScheduleConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Cron      string   `yaml:"cron"`
	Timezone  string   `yaml:"timezone"`
	Playlists []string `yaml:"playlists"`
}

// Validate validates the schedule configuration.
func (c *ScheduleConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Cron, validation.Required),
		validation.Field(&c.Playlists, validation.Required),
	); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Notes: NotesConfig{
			Directory: "./notes",
		},
		Sync: SyncConfig{
			Concurrency: 1,
		},
		Provider: ProviderConfig{
			Backend:        BackendYtdlp,
			YtdlpPath:      "yt-dlp",
			TimeoutSeconds: 60,
			MaxRetries:     3,
			Backoff: BackoffConfig{
				Initial:    time.Second,
				Max:        30 * time.Second,
				Multiplier: 2,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Schedule: ScheduleConfig{
			Cron:     "@daily",
			Timezone: "UTC",
		},
	}
}

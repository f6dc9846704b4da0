package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/tubenotes/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if got := cfg.SQLite.ResolvePath("/data/notes"); got != filepath.Join("/data/notes", ".tubenotes", "records.db") {
		t.Errorf("ledger path = %q", got)
	}
	cfg.SQLite.Path = "/tmp/x.db"
	if got := cfg.SQLite.ResolvePath("/data/notes"); got != "/tmp/x.db" {
		t.Errorf("explicit ledger path = %q", got)
	}
}

func TestProviderConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ProviderConfig)
		wantErr bool
	}{
		{"defaults", func(c *ProviderConfig) {}, false},
		{"empty backend defaults to ytdlp", func(c *ProviderConfig) { c.Backend = "" }, false},
		{"unknown backend", func(c *ProviderConfig) { c.Backend = "scraper" }, true},
		{"api without key", func(c *ProviderConfig) { c.Backend = BackendAPI }, true},
		{"api with key", func(c *ProviderConfig) { c.Backend = BackendAPI; c.APIKey = "k" }, false},
		{"bad region", func(c *ProviderConfig) { c.Region = "USA" }, true},
		{"zero timeout", func(c *ProviderConfig) { c.TimeoutSeconds = 0 }, true},
		{"max below initial", func(c *ProviderConfig) { c.Backoff.Max = time.Millisecond }, true},
		{"shrinking multiplier", func(c *ProviderConfig) { c.Backoff.Multiplier = 0.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConfig().Provider
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProviderRetryConfig(t *testing.T) {
	c := NewDefaultConfig().Provider
	c.MaxRetries = 5
	c.Backoff.Initial = 2 * time.Second
	rc := c.RetryConfig()
	if rc.MaxRetries != 5 || rc.InitialBackoff != 2*time.Second || rc.MaxBackoff != 30*time.Second {
		t.Errorf("retry config = %+v", rc)
	}
	if c.Timeout() != time.Minute {
		t.Errorf("timeout = %v", c.Timeout())
	}
}

func TestSyncConfig_Concurrency(t *testing.T) {
	c := SyncConfig{Concurrency: 0}
	if err := c.Validate(); err == nil {
		t.Error("zero concurrency should fail")
	}
	c.Concurrency = 4
	if err := c.Validate(); err != nil {
		t.Errorf("concurrency 4: %v", err)
	}
}

func TestScheduleConfig(t *testing.T) {
	disabled := ScheduleConfig{}
	if err := disabled.Validate(); err != nil {
		t.Errorf("disabled schedule should pass: %v", err)
	}
	noPlaylists := ScheduleConfig{Enabled: true, Cron: "@daily"}
	if err := noPlaylists.Validate(); err == nil {
		t.Error("enabled schedule without playlists should fail")
	}
	ok := ScheduleConfig{Enabled: true, Cron: "@daily", Playlists: []string{"PL1"}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid schedule: %v", err)
	}
	if ok.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", ok.Timezone)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("TUBENOTES_TEST_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: DEBUG
  http: { port: 9090 }
notes:
  directory: /srv/notes
sync:
  concurrency: 4
provider:
  backend: api
  api_key: ${TUBENOTES_TEST_KEY}
  backoff: { initial: 500ms, max: 10s, multiplier: 3 }
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Provider.APIKey != "from-env" || cfg.Provider.Backend != BackendAPI {
		t.Errorf("provider = %+v", cfg.Provider)
	}
	if cfg.Provider.Backoff.Initial != 500*time.Millisecond || cfg.Provider.Backoff.Multiplier != 3 {
		t.Errorf("backoff = %+v", cfg.Provider.Backoff)
	}
	if cfg.Provider.YtdlpPath != "yt-dlp" || cfg.Provider.TimeoutSeconds != 60 {
		t.Error("unset keys should keep defaults")
	}
	if cfg.Sync.Concurrency != 4 || cfg.Notes.Directory != "/srv/notes" {
		t.Errorf("sync/notes = %+v %+v", cfg.Sync, cfg.Notes)
	}
}

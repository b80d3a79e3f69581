package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/insiderwatch/internal/edgar"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range describedKeys {
		t.Setenv(EnvVar(key), "")
	}
	t.Setenv(EnvVar("feed.title_prefix"), "")
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if !strings.Contains(cfg.Feed.URL, "type=4") || !strings.Contains(cfg.Feed.URL, "output=atom") {
		t.Errorf("Feed.URL: got %q", cfg.Feed.URL)
	}
	if cfg.Feed.Interval != 30*time.Second {
		t.Errorf("Feed.Interval: got %s, want 30s", cfg.Feed.Interval)
	}
	if cfg.Feed.TitlePrefix != "4 " {
		t.Errorf("Feed.TitlePrefix: got %q, want %q", cfg.Feed.TitlePrefix, "4 ")
	}
	if cfg.EDGAR.UserAgent != edgar.DefaultUserAgent {
		t.Errorf("EDGAR.UserAgent: got %q, want %q", cfg.EDGAR.UserAgent, edgar.DefaultUserAgent)
	}
	if cfg.EDGAR.RequestsPerSecond != 10 {
		t.Errorf("EDGAR.RequestsPerSecond: got %g, want 10", cfg.EDGAR.RequestsPerSecond)
	}
	if cfg.EDGAR.Timeout != 30*time.Second {
		t.Errorf("EDGAR.Timeout: got %s, want 30s", cfg.EDGAR.Timeout)
	}
	if cfg.Pipeline.Workers != 4 {
		t.Errorf("Pipeline.Workers: got %d, want 4", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.SeenTTL != 24*time.Hour {
		t.Errorf("Pipeline.SeenTTL: got %s, want 24h", cfg.Pipeline.SeenTTL)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver: got %q, want sqlite", cfg.Store.Driver)
	}
	if strings.HasPrefix(cfg.Store.Path, "~") {
		t.Errorf("Store.Path should be expanded, got %q", cfg.Store.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
feed:
  interval: "2m"
  since: "2024-01-02T10:00:00-05:00"
edgar:
  user_agent: "Acme Research ops@acme.test"
  requests_per_second: 2.5
pipeline:
  workers: 8
store:
  driver: "jsonl"
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Feed.Interval != 2*time.Minute {
		t.Errorf("Feed.Interval: got %s, want 2m", cfg.Feed.Interval)
	}
	since, err := cfg.Feed.SinceTime()
	if err != nil {
		t.Fatalf("SinceTime() error: %v", err)
	}
	if want := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC); !since.Equal(want) {
		t.Errorf("Feed.Since: got %s, want %s", since, want)
	}
	if cfg.EDGAR.UserAgent != "Acme Research ops@acme.test" {
		t.Errorf("EDGAR.UserAgent: got %q", cfg.EDGAR.UserAgent)
	}
	if cfg.EDGAR.RequestsPerSecond != 2.5 {
		t.Errorf("EDGAR.RequestsPerSecond: got %g, want 2.5", cfg.EDGAR.RequestsPerSecond)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Errorf("Pipeline.Workers: got %d, want 8", cfg.Pipeline.Workers)
	}
	if cfg.Store.Driver != "jsonl" {
		t.Errorf("Store.Driver: got %q, want jsonl", cfg.Store.Driver)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	// Unset keys keep their defaults.
	if cfg.Feed.TitlePrefix != "4 " {
		t.Errorf("Feed.TitlePrefix: got %q", cfg.Feed.TitlePrefix)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSIDERWATCH_PIPELINE_WORKERS", "16")
	t.Setenv("INSIDERWATCH_EDGAR_USER_AGENT", "Env Corp env@corp.test")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Pipeline.Workers != 16 {
		t.Errorf("Pipeline.Workers: got %d, want 16 from env", cfg.Pipeline.Workers)
	}
	if cfg.EDGAR.UserAgent != "Env Corp env@corp.test" {
		t.Errorf("EDGAR.UserAgent: got %q", cfg.EDGAR.UserAgent)
	}
}

// ── Validate ──

func validConfig(t *testing.T) *Config {
	t.Helper()
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return cfg
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero interval", func(c *Config) { c.Feed.Interval = 0 }, "feed.interval"},
		{"bad since", func(c *Config) { c.Feed.Since = "yesterday" }, "feed.since"},
		{"blank user agent", func(c *Config) { c.EDGAR.UserAgent = "  " }, "edgar.user_agent"},
		{"zero rate", func(c *Config) { c.EDGAR.RequestsPerSecond = 0 }, "edgar.requests_per_second"},
		{"no workers", func(c *Config) { c.Pipeline.Workers = -1 }, "pipeline.workers"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver"},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"empty url", func(c *Config) { c.Feed.URL = "" }, "feed.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig(t)
	cfg.Feed.Interval = 0
	cfg.Pipeline.Workers = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() should fail")
	}
	for _, want := range []string{"feed.interval", "pipeline.workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q should mention %q", err, want)
		}
	}
}

// ── Describe ──

func TestDescribeSources(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSIDERWATCH_LOGGING_LEVEL", "warn")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("pipeline:\n  workers: 9\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}

	got := map[string]SettingStatus{}
	for _, s := range Describe(cfg) {
		got[s.Key] = s
	}
	if len(got) != len(describedKeys) {
		t.Fatalf("Describe() returned %d settings, want %d", len(got), len(describedKeys))
	}

	checks := []struct {
		key    string
		source SettingSource
		value  string
	}{
		{"logging.level", SourceEnv, "warn"},
		{"pipeline.workers", SourceConfig, "9"},
		{"pipeline.seen_ttl", SourceDefault, "24h0m0s"},
		{"edgar.user_agent", SourceDefault, edgar.DefaultUserAgent},
	}
	for _, c := range checks {
		s := got[c.key]
		if s.Source != c.source {
			t.Errorf("%s: source got %q, want %q", c.key, s.Source, c.source)
		}
		if s.Value != c.value {
			t.Errorf("%s: value got %q, want %q", c.key, s.Value, c.value)
		}
	}
	if got["logging.level"].EnvVar != "INSIDERWATCH_LOGGING_LEVEL" {
		t.Errorf("EnvVar: got %q", got["logging.level"].EnvVar)
	}
	if !UsesDefaultUserAgent(cfg) {
		t.Error("UsesDefaultUserAgent() should be true for the placeholder")
	}

	cfg.EDGAR.UserAgent = "Real Co ops@real.test"
	if UsesDefaultUserAgent(cfg) {
		t.Error("UsesDefaultUserAgent() should be false for a configured agent")
	}
	cfg.EDGAR.UserAgent = edgar.DefaultUserAgent
	if !UsesDefaultUserAgent(cfg) {
		t.Error("UsesDefaultUserAgent() should be true when the placeholder is set explicitly")
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("edgar.requests_per_second"); got != "INSIDERWATCH_EDGAR_REQUESTS_PER_SECOND" {
		t.Errorf("EnvVar: got %q", got)
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should never be empty")
	}
}

func TestExpandHome(t *testing.T) {
	if got := expandHome("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("expandHome absolute: got %q", got)
	}
	if got := expandHome("~/x.db"); got != filepath.Join(homeDir(), "x.db") {
		t.Errorf("expandHome ~/: got %q", got)
	}
}

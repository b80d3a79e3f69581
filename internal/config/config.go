// Package config handles configuration loading for insiderwatch.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/insiderwatch/internal/edgar"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "INSIDERWATCH"

// Config represents the complete application configuration.
type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"     yaml:"feed"`
	EDGAR    EDGARConfig    `mapstructure:"edgar"    yaml:"edgar"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// FeedConfig controls the latest-filings poller.
type FeedConfig struct {
	URL         string        `mapstructure:"url"          yaml:"url"`
	Interval    time.Duration `mapstructure:"interval"     yaml:"interval"`     // e.g. "30s"
	TitlePrefix string        `mapstructure:"title_prefix" yaml:"title_prefix"` // "4 " selects Form 4
	Since       string        `mapstructure:"since"        yaml:"since"`        // RFC 3339; empty means the epoch
}

// SinceTime parses Since. The zero time is returned for an empty value.
func (f FeedConfig) SinceTime() (time.Time, error) {
	if f.Since == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, f.Since)
	if err != nil {
		return time.Time{}, fmt.Errorf("feed.since: %w", err)
	}
	return t, nil
}

// EDGARConfig holds the fair-access settings for sec.gov.
type EDGARConfig struct {
	UserAgent         string        `mapstructure:"user_agent"          yaml:"user_agent"` // "Company Name admin@company.com"
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"             yaml:"timeout"`
}

// PipelineConfig controls fetch and decode fan-out.
type PipelineConfig struct {
	Workers int           `mapstructure:"workers"  yaml:"workers"`
	SeenTTL time.Duration `mapstructure:"seen_ttl" yaml:"seen_ttl"`
}

// StoreConfig selects where decoded filings go.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "sqlite", "jsonl" or "none"
	Path   string `mapstructure:"path"   yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Validate reports every setting that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Feed.URL == "" {
		errs = append(errs, errors.New("feed.url is empty"))
	}
	if c.Feed.Interval <= 0 {
		errs = append(errs, fmt.Errorf("feed.interval must be positive, got %s", c.Feed.Interval))
	}
	if _, err := c.Feed.SinceTime(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.EDGAR.UserAgent) == "" {
		errs = append(errs, errors.New("edgar.user_agent is required by SEC fair-access policy"))
	}
	if c.EDGAR.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("edgar.requests_per_second must be positive, got %g", c.EDGAR.RequestsPerSecond))
	}
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.workers must be positive, got %d", c.Pipeline.Workers))
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	case "jsonl", "none":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of sqlite, jsonl, none", c.Store.Driver))
	}
	return errors.Join(errs...)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.insiderwatch/config.yaml (home directory)
//  3. /etc/insiderwatch/config.yaml (system)
//
// Environment variables override config file values.
// Format: INSIDERWATCH_<SECTION>_<KEY>, e.g., INSIDERWATCH_EDGAR_USER_AGENT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".insiderwatch"))
	v.AddConfigPath("/etc/insiderwatch")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", "https://www.sec.gov/cgi-bin/browse-edgar?action=getcurrent&CIK=&type=4&company=&dateb=&owner=include&start=0&count=100&output=atom")
	v.SetDefault("feed.interval", "30s")
	v.SetDefault("feed.title_prefix", "4 ")
	v.SetDefault("feed.since", "")

	// SEC rejects anonymous clients; override with a real contact.
	v.SetDefault("edgar.user_agent", edgar.DefaultUserAgent)
	v.SetDefault("edgar.requests_per_second", edgar.DefaultRequestsPerSecond)
	v.SetDefault("edgar.timeout", "30s")

	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.seen_ttl", "24h")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "~/.insiderwatch/filings.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/seenimoa/insiderwatch/internal/edgar"
)

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceConfig  SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// SettingStatus describes one effective setting.
type SettingStatus struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
	EnvVar string        `json:"env_var"`
}

// describedKeys are the settings worth showing to an operator, in display order.
var describedKeys = []string{
	"feed.url",
	"feed.interval",
	"feed.since",
	"edgar.user_agent",
	"edgar.requests_per_second",
	"edgar.timeout",
	"pipeline.workers",
	"pipeline.seen_ttl",
	"store.driver",
	"store.path",
	"logging.level",
	"logging.format",
}

// Describe reports the effective value and origin of each setting.
func Describe(cfg *Config) []SettingStatus {
	v := viper.New()
	setDefaults(v)
	defaults, err := unmarshal(v)
	if err != nil {
		defaults = &Config{}
	}

	have, def := settingValues(cfg), settingValues(defaults)
	out := make([]SettingStatus, 0, len(describedKeys))
	for _, key := range describedKeys {
		out = append(out, checkSetting(key, have[key], def[key]))
	}
	return out
}

// UsesDefaultUserAgent reports whether requests would go out with the
// placeholder contact, which SEC may block. Setting the placeholder
// explicitly counts as using it.
func UsesDefaultUserAgent(cfg *Config) bool {
	if strings.TrimSpace(cfg.EDGAR.UserAgent) == edgar.DefaultUserAgent {
		return true
	}
	for _, s := range Describe(cfg) {
		if s.Key == "edgar.user_agent" {
			return s.Source == SourceDefault
		}
	}
	return false
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// checkSetting decides where a value came from.
func checkSetting(key, value, defaultValue string) SettingStatus {
	status := SettingStatus{Key: key, Value: value, EnvVar: EnvVar(key)}
	switch {
	case os.Getenv(status.EnvVar) != "":
		status.Source = SourceEnv
	case value == defaultValue:
		status.Source = SourceDefault
	default:
		status.Source = SourceConfig
	}
	return status
}

func settingValues(c *Config) map[string]string {
	return map[string]string{
		"feed.url":                  c.Feed.URL,
		"feed.interval":             c.Feed.Interval.String(),
		"feed.since":                c.Feed.Since,
		"edgar.user_agent":          c.EDGAR.UserAgent,
		"edgar.requests_per_second": fmt.Sprint(c.EDGAR.RequestsPerSecond),
		"edgar.timeout":             c.EDGAR.Timeout.String(),
		"pipeline.workers":          fmt.Sprint(c.Pipeline.Workers),
		"pipeline.seen_ttl":         c.Pipeline.SeenTTL.String(),
		"store.driver":              c.Store.Driver,
		"store.path":                c.Store.Path,
		"logging.level":             c.Logging.Level,
		"logging.format":            c.Logging.Format,
	}
}

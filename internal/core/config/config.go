package config

import (
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	WatchPaths    []string      `toml:"watch_paths"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Analysis      Analysis      `toml:"analysis"`
	DB            Database      `toml:"db"`
	Observability Observability `toml:"observability"`
	Log           Log           `toml:"log"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	// Rate and Burst bound watch-triggered re-analyses (per second / bucket size).
	Rate  float64 `toml:"rate"`
	Burst int     `toml:"burst"`
}

type Analysis struct {
	ReportShadowing  *bool    `toml:"report_shadowing"`
	ReportUnresolved *bool    `toml:"report_unresolved"`
	IgnoreNames      []string `toml:"ignore_names"`
}

func (a Analysis) ShadowingEnabled() bool {
	return a.ReportShadowing == nil || *a.ReportShadowing
}

func (a Analysis) UnresolvedEnabled() bool {
	return a.ReportUnresolved == nil || *a.ReportUnresolved
}

type Database struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// runs saved from watch mode wait here; overflow is dropped
	QueueCapacity int `toml:"queue_capacity"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Address       string `toml:"address"`
	EnableMetrics bool   `toml:"enable_metrics"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	ServiceName   string `toml:"service_name"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig is the configuration used when no config file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: SCOPECHECK_[SECTION]_[KEY] (e.g., SCOPECHECK_OBSERVABILITY_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "SCOPECHECK_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "SCOPECHECK_WATCH_RATE")
	setEnvInt(&cfg.Watch.Burst, "SCOPECHECK_WATCH_BURST")

	// Analysis
	setEnvBoolPtr(&cfg.Analysis.ReportShadowing, "SCOPECHECK_ANALYSIS_REPORT_SHADOWING")
	setEnvBoolPtr(&cfg.Analysis.ReportUnresolved, "SCOPECHECK_ANALYSIS_REPORT_UNRESOLVED")

	// Database
	setEnvBool(&cfg.DB.Enabled, "SCOPECHECK_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "SCOPECHECK_DB_PATH")
	setEnvInt(&cfg.DB.QueueCapacity, "SCOPECHECK_DB_QUEUE_CAPACITY")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "SCOPECHECK_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "SCOPECHECK_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "SCOPECHECK_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "SCOPECHECK_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "SCOPECHECK_OBSERVABILITY_ENABLE_METRICS")

	// Log
	setEnvString(&cfg.Log.Level, "SCOPECHECK_LOG_LEVEL")
	setEnvString(&cfg.Log.Format, "SCOPECHECK_LOG_FORMAT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}

package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}
	if cfg.Watch.Rate <= 0 {
		return fmt.Errorf("watch.rate must be > 0, got %v", cfg.Watch.Rate)
	}
	if cfg.Watch.Burst < 1 {
		return fmt.Errorf("watch.burst must be >= 1, got %d", cfg.Watch.Burst)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.dirs[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty when db.enabled is true")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.Address); err != nil {
		return fmt.Errorf("observability.address %q must be host:port: %w", cfg.Observability.Address, err)
	}
	return nil
}

func validateLog(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", cfg.Log.Level)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be one of: text, json; got %q", cfg.Log.Format)
	}
	return nil
}

// Validate runs every check and returns all failures instead of the first.
func Validate(cfg *Config) []error {
	var errs []error

	if err := validateVersion(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateWatch(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateExclude(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateDatabase(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateObservability(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateLog(cfg); err != nil {
		errs = append(errs, err)
	}

	// Path verification
	errs = append(errs, validatePaths(cfg)...)

	return errs
}

func validatePaths(cfg *Config) []error {
	var errs []error

	for i, path := range cfg.WatchPaths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("watch_paths[%d] %q does not exist", i, path))
		}
	}

	return errs
}

package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for invalid or inconsistent values.
func Validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.backend: unknown backend %q (expected \"memory\" or \"sqlite\")", cfg.Storage.Backend)
	}

	if cfg.Storage.Backend == "sqlite" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path: required for the sqlite backend")
	}
	if cfg.Storage.MaxOpenConns < 1 {
		return fmt.Errorf("storage.max_open_conns: must be at least 1, got %d", cfg.Storage.MaxOpenConns)
	}
	if cfg.Storage.MaxIdleConns < 0 {
		return fmt.Errorf("storage.max_idle_conns: must not be negative, got %d", cfg.Storage.MaxIdleConns)
	}
	if cfg.Storage.BusyTimeout < 0 {
		return fmt.Errorf("storage.busy_timeout: must not be negative, got %s", cfg.Storage.BusyTimeout)
	}

	if cfg.Identity.Watch && cfg.Identity.MapPath == "" {
		return fmt.Errorf("identity.watch: requires identity.map_path")
	}
	if cfg.Identity.DebounceInterval < 0 {
		return fmt.Errorf("identity.debounce_interval: must not be negative, got %s", cfg.Identity.DebounceInterval)
	}

	if cfg.Verification.Timeout <= 0 {
		return fmt.Errorf("verification.timeout: must be positive, got %s", cfg.Verification.Timeout)
	}

	if cfg.Retention.Enabled {
		if cfg.Retention.IdleAfter <= 0 {
			return fmt.Errorf("retention.idle_after: must be positive, got %s", cfg.Retention.IdleAfter)
		}
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			return fmt.Errorf("retention.schedule: invalid cron expression %q: %w", cfg.Retention.Schedule, err)
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level: unknown level %q", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format: unknown format %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}

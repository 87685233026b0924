package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Use LoadConfigWithEnvOverrides to also honor environment
// variables.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// AUTHORITY_SECTION_FIELD convention (e.g. AUTHORITY_STORAGE_BACKEND) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("AUTHORITY_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("AUTHORITY_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}
	if val := os.Getenv("AUTHORITY_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}

	// Identity overrides
	if val := os.Getenv("AUTHORITY_IDENTITY_MAP_PATH"); val != "" {
		cfg.Identity.MapPath = val
	}
	if val := os.Getenv("AUTHORITY_IDENTITY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Identity.Watch = b
		}
	}
	if val := os.Getenv("AUTHORITY_IDENTITY_DEFAULT_TO_USER"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Identity.DefaultToUser = b
		}
	}

	// Verification overrides
	if val := os.Getenv("AUTHORITY_VERIFICATION_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Verification.Enabled = b
		}
	}
	if val := os.Getenv("AUTHORITY_VERIFICATION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Verification.Timeout = d
		}
	}

	// Retention overrides
	if val := os.Getenv("AUTHORITY_RETENTION_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Retention.Enabled = b
		}
	}
	if val := os.Getenv("AUTHORITY_RETENTION_IDLE_AFTER"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Retention.IdleAfter = d
		}
	}
	if val := os.Getenv("AUTHORITY_RETENTION_SCHEDULE"); val != "" {
		cfg.Retention.Schedule = val
	}
	if val := os.Getenv("AUTHORITY_RETENTION_ARCHIVE_PATH"); val != "" {
		cfg.Retention.ArchivePath = val
	}

	// Telemetry overrides
	if val := os.Getenv("AUTHORITY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("AUTHORITY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("AUTHORITY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}

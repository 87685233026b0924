package config

import "time"

// Default configuration values.
const (
	DefaultStorageBackend      = "memory"
	DefaultStoragePath         = "data/ledger.db"
	DefaultStorageMaxOpenConns = 10
	DefaultStorageMaxIdleConns = 5
	DefaultStorageWALMode      = true
	DefaultStorageBusyTimeout  = 5 * time.Second

	DefaultIdentityDebounce = 100 * time.Millisecond

	DefaultVerificationEnabled = true
	DefaultVerificationTimeout = 10 * time.Second

	DefaultRetentionIdleAfter = 720 * time.Hour // 30 days
	DefaultRetentionSchedule  = "0 3 * * *"     // daily at 3 AM

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "authority"
	DefaultMetricsSubsystem = "ledger"
	DefaultMetricsPath      = "/metrics"
)

// DefaultConfig returns a configuration populated with all default values.
func DefaultConfig() *Config {
	cfg := &Config{
		Storage:      StorageConfig{WALMode: DefaultStorageWALMode},
		Verification: VerificationConfig{Enabled: DefaultVerificationEnabled},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:   DefaultMetricsEnabled,
		Namespace: DefaultMetricsNamespace,
		Subsystem: DefaultMetricsSubsystem,
		Path:      DefaultMetricsPath,
	}
}

// ApplyDefaults fills in default values for any unset fields. Boolean
// fields keep whatever the file said; their defaults apply only through
// DefaultConfig.
func ApplyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = DefaultStorageMaxIdleConns
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}

	// Identity defaults
	if cfg.Identity.DebounceInterval == 0 {
		cfg.Identity.DebounceInterval = DefaultIdentityDebounce
	}

	// Verification defaults
	if cfg.Verification.Timeout == 0 {
		cfg.Verification.Timeout = DefaultVerificationTimeout
	}

	// Retention defaults
	if cfg.Retention.IdleAfter == 0 {
		cfg.Retention.IdleAfter = DefaultRetentionIdleAfter
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

package config

import "time"

// Config is the root configuration structure for the authority boundary
// ledger. It contains all configuration sections for storage, identity
// resolution, verification, retention, and telemetry.
type Config struct {
	// Storage contains configuration for the ledger storage backend.
	Storage StorageConfig `yaml:"storage"`

	// Identity contains configuration for the principal-to-authority
	// resolver, including the identity map file and live-reload settings.
	Identity IdentityConfig `yaml:"identity"`

	// Verification contains configuration for the external verification
	// collaborator.
	Verification VerificationConfig `yaml:"verification"`

	// Retention contains configuration for session archival and eviction.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig contains configuration for the ledger storage backend.
type StorageConfig struct {
	// Backend selects the storage backend ("memory" or "sqlite").
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path. Ignored by the memory backend.
	// Default: "data/ledger.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// IdentityConfig contains configuration for the authority-level resolver.
type IdentityConfig struct {
	// MapPath is the YAML identity map file. Empty means the resolver is
	// assembled in code instead of loaded from disk.
	MapPath string `yaml:"map_path"`

	// Watch enables live reloading of the identity map on file change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a reload after file
	// changes.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// DefaultToUser classifies unknown principals as USER instead of
	// rejecting them. Explicit policy opt-in.
	// Default: false
	DefaultToUser bool `yaml:"default_to_user"`
}

// VerificationConfig contains configuration for the external verification
// collaborator.
type VerificationConfig struct {
	// Enabled controls whether verification runs after constrained turns.
	// When disabled, constrained turns are blocked (the kernel fails
	// closed without a verifier).
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Timeout is the deadline for one verification call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// RetentionConfig contains configuration for session archival and eviction.
type RetentionConfig struct {
	// Enabled controls whether scheduled eviction runs at all.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// IdleAfter is how long a session must be idle before it is eligible
	// for eviction.
	// Default: 720h (30 days)
	IdleAfter time.Duration `yaml:"idle_after"`

	// Schedule is the cron expression for eviction runs.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`

	// ArchivePath is the SQLite archive database for evicted sessions'
	// audit trails. Empty disables archival: evicted trails are dropped.
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains configuration for logging and metrics.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log output.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "authority"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "ledger"
	Subsystem string `yaml:"subsystem"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

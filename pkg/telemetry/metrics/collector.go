package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/config"
)

// Collector owns the Prometheus registry and the per-concern metric groups.
// Assemble one at the composition root and hand its groups to the ledger and
// orchestrator as recorders.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Ledger mutation metrics
	ledgerMetrics *LedgerMetrics

	// Turn orchestration metrics
	turnMetrics *TurnMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = config.DefaultMetricsConfig()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		ledgerMetrics: NewLedgerMetrics(cfg, registry),
		turnMetrics:   NewTurnMetrics(cfg, registry),
	}
}

// Ledger returns the ledger metrics group; it satisfies ledger.Recorder.
func (c *Collector) Ledger() *LedgerMetrics {
	return c.ledgerMetrics
}

// Turns returns the turn metrics group; it satisfies enforcement.TurnRecorder.
func (c *Collector) Turns() *TurnMetrics {
	return c.turnMetrics
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

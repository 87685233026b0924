package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/config"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/enforcement"
)

// TurnMetrics tracks metrics related to orchestrated generation turns.
//
// Metrics:
//   - authority_turns_total: Completed turns by status
//   - authority_turn_duration_seconds: Whole-turn latency by status
//   - authority_capabilities_filtered_total: Capabilities removed by the gate
type TurnMetrics struct {
	// Completed turns by status
	turnsTotal *prometheus.CounterVec

	// Whole-turn latency histogram
	turnDuration *prometheus.HistogramVec

	// Capabilities removed by the gate
	filteredTotal prometheus.Counter
}

// NewTurnMetrics creates and registers turn metrics with the provided registry.
func NewTurnMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TurnMetrics {
	tm := &TurnMetrics{
		turnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "turns_total",
				Help:      "Total number of orchestrated turns",
			},
			[]string{"status"},
		),

		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "turn_duration_seconds",
				Help:      "Duration of orchestrated turns in seconds",
				// Turns include a model call, so buckets reach well past a second
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"status"},
		),

		filteredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "capabilities_filtered_total",
				Help:      "Total number of capabilities removed by the gate",
			},
		),
	}

	registry.MustRegister(
		tm.turnsTotal,
		tm.turnDuration,
		tm.filteredTotal,
	)

	return tm
}

// RecordTurn records a completed turn.
func (tm *TurnMetrics) RecordTurn(status enforcement.TurnStatus, latency time.Duration) {
	tm.turnsTotal.WithLabelValues(string(status)).Inc()
	tm.turnDuration.WithLabelValues(string(status)).Observe(latency.Seconds())
}

// RecordFiltered records capabilities removed by the gate during one turn.
func (tm *TurnMetrics) RecordFiltered(removed int) {
	if removed > 0 {
		tm.filteredTotal.Add(float64(removed))
	}
}

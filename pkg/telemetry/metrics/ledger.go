package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/config"
)

// LedgerMetrics tracks metrics related to ledger mutations.
//
// Metrics:
//   - authority_ledger_establishes_total: Establish attempts by ring and outcome
//   - authority_ledger_releases_total: Release attempts by ring and outcome
//   - authority_ledger_denied_actions_total: Action checks denied by the effective mask
type LedgerMetrics struct {
	// Establish attempts by ring and outcome
	establishesTotal *prometheus.CounterVec

	// Release attempts by ring and outcome
	releasesTotal *prometheus.CounterVec

	// Denied action checks by requested action
	deniedActionsTotal *prometheus.CounterVec
}

// NewLedgerMetrics creates and registers ledger metrics with the provided registry.
func NewLedgerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LedgerMetrics {
	lm := &LedgerMetrics{
		establishesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "establishes_total",
				Help:      "Total number of establish attempts",
			},
			[]string{"ring", "outcome"},
		),

		releasesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "releases_total",
				Help:      "Total number of release attempts",
			},
			[]string{"ring", "outcome"},
		),

		deniedActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "denied_actions_total",
				Help:      "Total number of action checks denied by the effective mask",
			},
			[]string{"action"},
		),
	}

	registry.MustRegister(
		lm.establishesTotal,
		lm.releasesTotal,
		lm.deniedActionsTotal,
	)

	return lm
}

// RecordEstablish records an establish attempt.
func (lm *LedgerMetrics) RecordEstablish(ring authority.RingLevel, outcome audit.Outcome) {
	lm.establishesTotal.WithLabelValues(ring.String(), string(outcome)).Inc()
}

// RecordRelease records a release attempt.
func (lm *LedgerMetrics) RecordRelease(ring authority.RingLevel, outcome audit.Outcome) {
	lm.releasesTotal.WithLabelValues(ring.String(), string(outcome)).Inc()
}

// RecordDeniedAction records a failed action check.
func (lm *LedgerMetrics) RecordDeniedAction(action authority.Action) {
	lm.deniedActionsTotal.WithLabelValues(action.String()).Inc()
}

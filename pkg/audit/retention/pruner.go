package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/ledger/storage"
)

// Archiver receives a session's audit trail before the session is evicted.
type Archiver interface {
	Archive(ctx context.Context, sessionID string, events []audit.Event) error
}

// Config contains configuration for the retention pruner.
type Config struct {
	// IdleAfter is how long a session may go without a new audit event
	// before it is eligible for eviction. 0 means keep sessions forever.
	IdleAfter time.Duration

	// Schedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	Schedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		IdleAfter: 24 * time.Hour,
		Schedule:  "0 3 * * *",
	}
}

// Pruner evicts idle sessions from the live store, archiving their audit
// trails first. The archiver may be nil, in which case trails are dropped
// with the session.
type Pruner struct {
	store     storage.Store
	archiver  Archiver
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
	now       func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(store storage.Store, archiver Archiver, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		store:    store,
		archiver: archiver,
		config:   config,
		logger:   slog.Default().With("component", "audit.retention"),
		now:      time.Now,
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune evicts every session whose last audit event is older than the idle
// window. Each session is archived (when an archiver is configured) and then
// evicted; a failure on one session is logged and does not block the rest.
// Returns the number of sessions evicted.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	if p.config.IdleAfter <= 0 {
		p.logger.Debug("idle window not configured, skipping prune")
		return 0, nil
	}

	cutoff := p.now().Add(-p.config.IdleAfter)

	sessions, err := p.store.Sessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	evicted := 0
	for _, sessionID := range sessions {
		ok, err := p.pruneSession(ctx, sessionID, cutoff)
		if err != nil {
			p.logger.Error("failed to prune session",
				"session_id", sessionID,
				"error", err,
			)
			continue
		}
		if ok {
			evicted++
		}
	}

	if evicted == 0 {
		p.logger.Debug("no sessions evicted",
			"idle_after", p.config.IdleAfter,
			"candidates", len(sessions),
		)
	} else {
		p.logger.Info("retention pruning completed",
			"evicted", evicted,
			"idle_after", p.config.IdleAfter,
		)
	}

	return evicted, nil
}

// pruneSession archives and evicts one session if it is idle. Returns true
// when the session was evicted.
func (p *Pruner) pruneSession(ctx context.Context, sessionID string, cutoff time.Time) (bool, error) {
	last, err := p.store.LastActivity(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to read last activity: %w", err)
	}

	// A session with state but no events has a zero last-activity time.
	// Treat it as idle so abandoned sessions don't accumulate.
	if !last.IsZero() && last.After(cutoff) {
		return false, nil
	}

	if p.archiver != nil {
		trail, err := p.store.Trail(ctx, sessionID)
		if err != nil {
			return false, fmt.Errorf("failed to read trail: %w", err)
		}
		if err := p.archiver.Archive(ctx, sessionID, trail); err != nil {
			return false, fmt.Errorf("failed to archive trail: %w", err)
		}
	}

	if err := p.store.Evict(ctx, sessionID); err != nil {
		return false, fmt.Errorf("failed to evict session: %w", err)
	}

	p.logger.Info("idle session evicted",
		"session_id", sessionID,
		"last_activity", last,
	)
	return true, nil
}

// Start starts the automatic pruning scheduler.
// Call this when starting the application.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
// Call this during graceful shutdown.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority/resolver"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/ledger/storage"
)

// Recorder receives ledger mutation outcomes for metrics. Implementations
// must be safe for concurrent use. A nil Recorder disables recording.
type Recorder interface {
	// RecordEstablish records an establish attempt per ring and outcome.
	RecordEstablish(ring authority.RingLevel, outcome audit.Outcome)

	// RecordRelease records a release attempt per ring and outcome.
	RecordRelease(ring authority.RingLevel, outcome audit.Outcome)

	// RecordDeniedAction records a failed action check.
	RecordDeniedAction(action authority.Action)
}

// Ledger is the authority-state engine. It owns no global state: callers
// construct one at the composition root with an explicit store, resolver,
// and boundary-type registry, and pass it by reference.
type Ledger struct {
	store    storage.Store
	resolver resolver.Resolver
	registry *authority.Registry
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(l *Ledger) { l.recorder = recorder }
}

// New creates a ledger over the given store, resolver, and registry.
func New(store storage.Store, res resolver.Resolver, registry *authority.Registry, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger: store cannot be nil")
	}
	if res == nil {
		return nil, fmt.Errorf("ledger: resolver cannot be nil")
	}
	if registry == nil {
		registry = authority.DefaultRegistry()
	}

	l := &Ledger{
		store:    store,
		resolver: res,
		registry: registry,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default().With("component", "ledger")
	}
	return l, nil
}

// newEvent builds an audit event with a fresh ID and timestamp.
func newEvent(sessionID string, turn int, kind audit.Kind, outcome audit.Outcome, actor string) audit.Event {
	return audit.Event{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Turn:       turn,
		Kind:       kind,
		Outcome:    outcome,
		Actor:      actor,
		RecordedAt: time.Now().UTC(),
	}
}

// Establish places an active boundary record on the given ring of the
// session, overwriting any record already in the slot. The actor's resolved
// authority must be at least as strong as the ring (level <= ring). Every
// attempt, granted or denied, appends exactly one audit event atomically
// with the slot mutation; on denial the slot is unchanged and the call fails
// with *authority.AuthorizationError.
func (l *Ledger) Establish(ctx context.Context, sessionID string, boundaryType authority.BoundaryType, ring authority.RingLevel, turn int, actor string) error {
	if !ring.Valid() {
		return fmt.Errorf("ledger: invalid ring level %d", int(ring))
	}

	// Unknown boundary types are a registration error, rejected before any
	// state is touched.
	profile, err := l.registry.Lookup(boundaryType)
	if err != nil {
		return err
	}

	level, resolveErr := l.resolver.Resolve(actor)

	return l.store.Mutate(ctx, sessionID, func(state *storage.SessionState) ([]audit.Event, error) {
		event := newEvent(sessionID, turn, audit.KindEstablished, audit.OutcomeDenied, actor)
		event.Ring = audit.RingRef(ring)
		event.BoundaryType = boundaryType

		if resolveErr != nil {
			event.Detail = "unresolved principal"
			l.record(func(r Recorder) { r.RecordEstablish(ring, audit.OutcomeDenied) })
			return []audit.Event{event}, resolveErr
		}

		if !level.CanMutate(ring) {
			event.Detail = fmt.Sprintf("authority %s insufficient for ring %s", level, ring)
			l.record(func(r Recorder) { r.RecordEstablish(ring, audit.OutcomeDenied) })
			l.logger.Warn("establish denied",
				"session_id", sessionID,
				"actor", actor,
				"level", level.String(),
				"ring", ring.String(),
			)
			return []audit.Event{event}, authority.NewAuthorizationError(actor, level, ring,
				"authority level insufficient to establish on this ring")
		}

		state.Slots[ring] = authority.BoundaryRecord{
			Type:              boundaryType,
			Ring:              ring,
			Allowed:           profile.Allowed,
			EstablishedBy:     actor,
			EstablishedAtTurn: turn,
		}

		event.Outcome = audit.OutcomeAllowed
		l.record(func(r Recorder) { r.RecordEstablish(ring, audit.OutcomeAllowed) })
		l.logger.Info("boundary established",
			"session_id", sessionID,
			"ring", ring.String(),
			"type", string(boundaryType),
			"actor", actor,
			"turn", turn,
		)
		return []audit.Event{event}, nil
	})
}

// Release clears the boundary record on the given ring. The constitutional
// ring can never be released by any actor; for the other rings the actor's
// authority must be at least as strong as the ring. Denials append a
// RELEASE_DENIED event and fail with *authority.AuthorizationError, leaving
// the slot unchanged.
func (l *Ledger) Release(ctx context.Context, sessionID string, ring authority.RingLevel, actor string, turn int) error {
	if !ring.Valid() {
		return fmt.Errorf("ledger: invalid ring level %d", int(ring))
	}

	level, resolveErr := l.resolver.Resolve(actor)

	return l.store.Mutate(ctx, sessionID, func(state *storage.SessionState) ([]audit.Event, error) {
		event := newEvent(sessionID, turn, audit.KindReleaseDenied, audit.OutcomeDenied, actor)
		event.Ring = audit.RingRef(ring)
		if record, ok := state.Slots[ring]; ok {
			event.BoundaryType = record.Type
		}

		deny := func(detail, reason string) ([]audit.Event, error) {
			event.Detail = detail
			l.record(func(r Recorder) { r.RecordRelease(ring, audit.OutcomeDenied) })
			l.logger.Warn("release denied",
				"session_id", sessionID,
				"actor", actor,
				"ring", ring.String(),
				"detail", detail,
			)
			return []audit.Event{event}, authority.NewAuthorizationError(actor, level, ring, reason)
		}

		if resolveErr != nil {
			event.Detail = "unresolved principal"
			l.record(func(r Recorder) { r.RecordRelease(ring, audit.OutcomeDenied) })
			return []audit.Event{event}, resolveErr
		}

		if ring == authority.RingConstitutional {
			return deny("constitutional ring is immutable",
				"constitutional constraints can never be released")
		}

		if !level.CanMutate(ring) {
			return deny(fmt.Sprintf("authority %s insufficient for ring %s", level, ring),
				"authority level insufficient to release this ring")
		}

		if _, ok := state.Slots[ring]; !ok {
			return deny("ring has no active record", "no active record to release")
		}

		delete(state.Slots, ring)

		event.Kind = audit.KindReleaseGranted
		event.Outcome = audit.OutcomeAllowed
		event.Detail = ""
		l.record(func(r Recorder) { r.RecordRelease(ring, audit.OutcomeAllowed) })
		l.logger.Info("boundary released",
			"session_id", sessionID,
			"ring", ring.String(),
			"actor", actor,
			"turn", turn,
		)
		return []audit.Event{event}, nil
	})
}

// EffectiveMask returns the merged permission mask of the session: the
// bitwise AND of all active ring masks, ALL when no ring is active. It has
// no side effects and never fails for a known session.
func (l *Ledger) EffectiveMask(ctx context.Context, sessionID string) (authority.Action, error) {
	state, err := l.store.Snapshot(ctx, sessionID)
	if err != nil {
		return authority.ActionNone, err
	}
	return Merge(state.Slots), nil
}

// CanPerform reports whether the action is permitted under the session's
// effective mask. A denied check appends one DENIED_ACTION audit event
// attributing the attempt to the actor; a permitted check appends nothing.
func (l *Ledger) CanPerform(ctx context.Context, sessionID string, action authority.Action, actor string, turn int) (bool, error) {
	mask, err := l.EffectiveMask(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if mask.Permits(action) {
		return true, nil
	}

	err = l.store.Mutate(ctx, sessionID, func(state *storage.SessionState) ([]audit.Event, error) {
		event := newEvent(sessionID, turn, audit.KindDeniedAction, audit.OutcomeDenied, actor)
		event.Detail = fmt.Sprintf("action %s not permitted under mask %s", action, mask)
		return []audit.Event{event}, nil
	})
	if err != nil {
		return false, err
	}

	l.record(func(r Recorder) { r.RecordDeniedAction(action) })
	l.logger.Info("action denied",
		"session_id", sessionID,
		"actor", actor,
		"action", action.String(),
		"mask", mask.String(),
	)
	return false, nil
}

// FlagVerification appends a VERIFICATION_FLAGGED event for the session and
// turn. The orchestration layer calls this when the verification
// collaborator reports a violation, or when it is unreachable while a
// constraint is active (fail-closed).
func (l *Ledger) FlagVerification(ctx context.Context, sessionID string, turn int, actor, detail string) error {
	return l.store.Mutate(ctx, sessionID, func(state *storage.SessionState) ([]audit.Event, error) {
		event := newEvent(sessionID, turn, audit.KindVerificationFlagged, audit.OutcomeDenied, actor)
		event.Detail = detail
		return []audit.Event{event}, nil
	})
}

// AuditTrail returns the session's full audit history in append order. A
// session with no prior events yields an empty sequence, not an error.
func (l *Ledger) AuditTrail(ctx context.Context, sessionID string) ([]audit.Event, error) {
	return l.store.Trail(ctx, sessionID)
}

// ActiveBoundary describes one active ring record for consumers that build
// enforcement text or run verification. It carries no authorization logic.
type ActiveBoundary struct {
	// Ring is the ring the record occupies.
	Ring authority.RingLevel

	// Type is the boundary type of the record.
	Type authority.BoundaryType

	// Tag is the opaque enforcement tag registered for the type.
	Tag string

	// EstablishedAtTurn is the turn the record was established on.
	EstablishedAtTurn int
}

// ActiveBoundaries returns the session's active records ordered by ring,
// highest authority first.
func (l *Ledger) ActiveBoundaries(ctx context.Context, sessionID string) ([]ActiveBoundary, error) {
	state, err := l.store.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var active []ActiveBoundary
	for ring, record := range state.Slots {
		tag := ""
		if profile, err := l.registry.Lookup(record.Type); err == nil {
			tag = profile.Tag
		}
		active = append(active, ActiveBoundary{
			Ring:              ring,
			Type:              record.Type,
			Tag:               tag,
			EstablishedAtTurn: record.EstablishedAtTurn,
		})
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Ring < active[j].Ring })
	return active, nil
}

// Registry returns the ledger's boundary-type registry.
func (l *Ledger) Registry() *authority.Registry {
	return l.registry
}

// record invokes fn against the recorder when one is configured.
func (l *Ledger) record(fn func(Recorder)) {
	if l.recorder != nil {
		fn(l.recorder)
	}
}

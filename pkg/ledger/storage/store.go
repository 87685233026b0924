package storage

import (
	"context"
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// SessionState is the persisted authority state of one session: up to one
// active boundary record per ring. A ring absent from Slots is empty.
type SessionState struct {
	// SessionID identifies the session.
	SessionID string

	// Slots holds the active record per ring. At most three entries.
	Slots map[authority.RingLevel]authority.BoundaryRecord
}

// NewSessionState returns an empty state for the given session.
func NewSessionState(sessionID string) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Slots:     make(map[authority.RingLevel]authority.BoundaryRecord),
	}
}

// Clone returns a deep copy of the state. Stores hand out clones so callers
// can never mutate persisted state outside a Mutate call.
func (s *SessionState) Clone() *SessionState {
	clone := NewSessionState(s.SessionID)
	for ring, record := range s.Slots {
		clone.Slots[ring] = record
	}
	return clone
}

// MutateFunc inspects and optionally modifies a session's ring slots, and
// returns the audit events describing the attempt. The store persists the
// resulting slots and appends the returned events in the same atomic step,
// then propagates the returned error to the caller. A denial path therefore
// leaves the slots untouched, appends its denial event, and still surfaces
// the error.
type MutateFunc func(state *SessionState) ([]audit.Event, error)

// Store persists per-session ring slots and audit trails.
//
// Sessions exist implicitly: reading an unknown session yields an empty
// state and an empty trail, never an error. Operations on different sessions
// must not interfere; operations on the same session must be serialized by
// the implementation.
type Store interface {
	// Mutate runs fn against the session's current state under the
	// session's exclusive critical section and persists the outcome
	// atomically. See MutateFunc for the contract.
	Mutate(ctx context.Context, sessionID string, fn MutateFunc) error

	// Snapshot returns a copy of the session's current ring slots.
	Snapshot(ctx context.Context, sessionID string) (*SessionState, error)

	// Trail returns the session's audit events in append order.
	Trail(ctx context.Context, sessionID string) ([]audit.Event, error)

	// Sessions returns the IDs of all sessions with any recorded state.
	Sessions(ctx context.Context) ([]string, error)

	// LastActivity returns the recorded time of the session's most recent
	// audit event, or the zero time for a session with no events.
	LastActivity(ctx context.Context, sessionID string) (time.Time, error)

	// Evict removes a session's slots and trail entirely. Eviction is an
	// external lifecycle operation (retention policy); the ledger itself
	// never deletes sessions.
	Evict(ctx context.Context, sessionID string) error

	// Close releases resources held by the backend.
	Close() error
}

package audit

import (
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// Kind classifies what an audit event records.
type Kind string

const (
	// KindEstablished records an establish attempt. Outcome distinguishes a
	// granted establish from a denied one.
	KindEstablished Kind = "ESTABLISHED"

	// KindReleaseGranted records a successful release of a ring slot.
	KindReleaseGranted Kind = "RELEASE_GRANTED"

	// KindReleaseDenied records a release attempt that was refused, either
	// for insufficient authority or because it targeted the constitutional
	// ring.
	KindReleaseDenied Kind = "RELEASE_DENIED"

	// KindDeniedAction records an action check that failed against the
	// effective mask.
	KindDeniedAction Kind = "DENIED_ACTION"

	// KindVerificationFlagged records a post-generation verification
	// violation, or a verification collaborator failure handled fail-closed.
	KindVerificationFlagged Kind = "VERIFICATION_FLAGGED"
)

// Outcome is the disposition of the attempt an event records.
type Outcome string

const (
	// OutcomeAllowed marks a granted attempt.
	OutcomeAllowed Outcome = "ALLOWED"

	// OutcomeDenied marks a refused attempt.
	OutcomeDenied Outcome = "DENIED"
)

// Event is one immutable entry in a session's audit trail.
type Event struct {
	// ID is a UUID assigned at append time.
	ID string `json:"id"`

	// SessionID identifies the session the event belongs to.
	SessionID string `json:"session_id"`

	// Turn is the conversation turn the attempt was made on. Within a
	// session, turns are non-decreasing in append order.
	Turn int `json:"turn"`

	// Kind classifies the attempt.
	Kind Kind `json:"kind"`

	// Outcome is the disposition of the attempt.
	Outcome Outcome `json:"outcome"`

	// Actor is the principal that made the attempt.
	Actor string `json:"actor"`

	// Ring is the ring the attempt targeted. Nil for events that are not
	// ring-scoped (denied actions, verification flags).
	Ring *authority.RingLevel `json:"ring,omitempty"`

	// BoundaryType is the boundary type involved, when one was. Empty for
	// releases of an already-known slot and for denied actions.
	BoundaryType authority.BoundaryType `json:"boundary_type,omitempty"`

	// Detail carries a short human-readable note: the denial reason, the
	// denied action, or the verification failure mode.
	Detail string `json:"detail,omitempty"`

	// RecordedAt is the wall-clock append time.
	RecordedAt time.Time `json:"recorded_at"`
}

// RingRef returns a pointer to a ring level, for populating Event.Ring.
func RingRef(r authority.RingLevel) *authority.RingLevel {
	return &r
}

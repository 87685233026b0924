package enforcement

import (
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/gate"
)

// TurnStatus classifies the outcome of an orchestrated turn.
type TurnStatus string

const (
	// StatusPass means no constraint was active; the response went out
	// unverified.
	StatusPass TurnStatus = "PASS"

	// StatusVerified means constraints were active and the verification
	// collaborator passed the response.
	StatusVerified TurnStatus = "VERIFIED"

	// StatusBlocked means constraints were active and the response was
	// withheld: either the verifier found a violation, or it was
	// unreachable and the turn failed closed.
	StatusBlocked TurnStatus = "BLOCKED"
)

// TurnRequest describes one generation turn to orchestrate.
type TurnRequest struct {
	// SessionID identifies the session the turn belongs to.
	SessionID string

	// Turn is the conversation turn number.
	Turn int

	// Actor is the principal driving the turn.
	Actor string

	// Input is the text handed to the generation collaborator.
	Input string

	// Capabilities is the full capability list before gating.
	Capabilities []gate.Capability
}

// TurnResult is the outcome of an orchestrated turn.
type TurnResult struct {
	// Status classifies the turn.
	Status TurnStatus

	// Response is the generated text. Empty when the turn was blocked.
	Response string

	// BoundaryActive reports whether any ring held an active record.
	BoundaryActive bool

	// EffectiveMask is the merged permission mask the turn ran under.
	EffectiveMask authority.Action

	// Granted is the capability list after gating, exactly what the
	// generation collaborator was allowed to see.
	Granted []gate.Capability

	// VerificationReason explains a blocked turn: the violation reason or
	// the collaborator failure mode.
	VerificationReason string

	// Latency is the wall-clock duration of the whole turn.
	Latency time.Duration
}

// GenerationRequest is the input to the generation collaborator. The
// capability list has already been gated: anything absent here must be
// treated as nonexistent, not merely forbidden.
type GenerationRequest struct {
	// SessionID identifies the session.
	SessionID string

	// Turn is the conversation turn number.
	Turn int

	// Input is the caller-supplied text.
	Input string

	// Capabilities is the gated capability list.
	Capabilities []gate.Capability

	// Mask is the effective permission mask the turn runs under.
	Mask authority.Action
}

package enforcement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/gate"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/ledger"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/verification"
)

// Generator is the external generation collaborator. The orchestrator never
// inspects how generation happens; it only guarantees that the request's
// capability list has been gated first.
type Generator interface {
	// Generate produces the response text for a turn.
	Generate(ctx context.Context, req *GenerationRequest) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req *GenerationRequest) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req *GenerationRequest) (string, error) {
	return f(ctx, req)
}

// TurnRecorder receives turn outcomes for metrics. A nil TurnRecorder
// disables recording.
type TurnRecorder interface {
	// RecordTurn records a completed turn's status and latency.
	RecordTurn(status TurnStatus, latency time.Duration)

	// RecordFiltered records how many capabilities the gate removed.
	RecordFiltered(removed int)
}

// Orchestrator runs constrained generation turns against an injected ledger,
// gate, generator, and verifier.
type Orchestrator struct {
	ledger    *ledger.Ledger
	gate      *gate.Gate
	generator Generator
	verifier  verification.Verifier
	logger    *slog.Logger
	recorder  TurnRecorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithVerifier sets the verification collaborator. Wrap it with
// verification.WithTimeout; an orchestrator without a verifier treats every
// constrained turn as if the collaborator were unreachable.
func WithVerifier(v verification.Verifier) Option {
	return func(o *Orchestrator) { o.verifier = v }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r TurnRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an orchestrator over the given ledger and generator.
func New(l *ledger.Ledger, generator Generator, opts ...Option) (*Orchestrator, error) {
	if l == nil {
		return nil, fmt.Errorf("enforcement: ledger cannot be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("enforcement: generator cannot be nil")
	}

	o := &Orchestrator{
		ledger:    l,
		gate:      gate.New(l),
		generator: generator,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default().With("component", "enforcement")
	}
	return o, nil
}

// RunTurn orchestrates one generation turn. The capability list is validated
// and gated before generation; verification runs strictly after. When the
// verifier reports a violation or is unreachable while any ring is active,
// the turn is blocked and a VERIFICATION_FLAGGED event is appended; with no
// active constraint the turn passes unverified.
func (o *Orchestrator) RunTurn(ctx context.Context, req *TurnRequest) (*TurnResult, error) {
	start := time.Now()

	if err := gate.ValidateCapabilities(req.Capabilities); err != nil {
		return nil, fmt.Errorf("invalid capability list: %w", err)
	}

	mask, err := o.ledger.EffectiveMask(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	active, err := o.ledger.ActiveBoundaries(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	granted := gate.Filter(req.Capabilities, mask)
	removed := len(req.Capabilities) - len(granted)
	o.record(func(r TurnRecorder) { r.RecordFiltered(removed) })

	if removed > 0 {
		o.logger.Debug("capabilities filtered",
			"session_id", req.SessionID,
			"turn", req.Turn,
			"removed", removed,
			"granted", len(granted),
		)
	}

	response, err := o.generator.Generate(ctx, &GenerationRequest{
		SessionID:    req.SessionID,
		Turn:         req.Turn,
		Input:        req.Input,
		Capabilities: granted,
		Mask:         mask,
	})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	result := &TurnResult{
		Response:       response,
		BoundaryActive: len(active) > 0,
		EffectiveMask:  mask,
		Granted:        granted,
	}

	if len(active) == 0 {
		// No constraint active: nothing to verify, fail-open is permitted.
		result.Status = StatusPass
		result.Latency = time.Since(start)
		o.record(func(r TurnRecorder) { r.RecordTurn(result.Status, result.Latency) })
		return result, nil
	}

	o.verify(ctx, req, active, result)
	result.Latency = time.Since(start)
	o.record(func(r TurnRecorder) { r.RecordTurn(result.Status, result.Latency) })
	return result, nil
}

// record invokes fn with the configured recorder; a nil recorder disables
// recording.
func (o *Orchestrator) record(fn func(TurnRecorder)) {
	if o.recorder != nil {
		fn(o.recorder)
	}
}

// verify runs the verification collaborator and classifies the turn. The
// session has at least one active constraint, so any collaborator failure
// blocks the turn rather than passing it.
func (o *Orchestrator) verify(ctx context.Context, req *TurnRequest, active []ledger.ActiveBoundary, result *TurnResult) {
	tags := make([]string, 0, len(active))
	for _, boundary := range active {
		tags = append(tags, boundary.Tag)
	}

	flag := func(detail string) {
		if err := o.ledger.FlagVerification(ctx, req.SessionID, req.Turn, req.Actor, detail); err != nil {
			o.logger.Error("failed to append verification flag",
				"session_id", req.SessionID,
				"turn", req.Turn,
				"error", err,
			)
		}
	}

	if o.verifier == nil {
		result.Status = StatusBlocked
		result.Response = ""
		result.VerificationReason = "no verifier configured while constraints active"
		flag(result.VerificationReason)
		return
	}

	checked, err := o.verifier.Check(ctx, result.EffectiveMask, tags, result.Response)
	if err != nil {
		result.Status = StatusBlocked
		result.Response = ""
		result.VerificationReason = fmt.Sprintf("verifier unavailable: %v", err)
		o.logger.Warn("verification unavailable, failing closed",
			"session_id", req.SessionID,
			"turn", req.Turn,
			"error", err,
		)
		flag(result.VerificationReason)
		return
	}

	if checked.Status == verification.StatusViolation {
		result.Status = StatusBlocked
		result.Response = ""
		result.VerificationReason = checked.Reason
		o.logger.Warn("verification violation",
			"session_id", req.SessionID,
			"turn", req.Turn,
			"reason", checked.Reason,
		)
		flag("violation: " + checked.Reason)
		return
	}

	result.Status = StatusVerified
}

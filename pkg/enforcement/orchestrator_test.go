package enforcement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority/resolver"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/gate"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/ledger"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/ledger/storage"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/verification"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	res := resolver.NewStaticResolver(map[string]authority.AuthorityLevel{
		"admin:alice": authority.AuthorityAdmin,
		"user:bob":    authority.AuthorityUser,
	}, resolver.Config{})
	l, err := ledger.New(storage.NewMemoryStore(), res, nil)
	if err != nil {
		t.Fatalf("ledger.New failed: %v", err)
	}
	return l
}

func echoGenerator() Generator {
	return GeneratorFunc(func(ctx context.Context, req *GenerationRequest) (string, error) {
		return "echo: " + req.Input, nil
	})
}

func passVerifier() verification.Verifier {
	return verification.VerifierFunc(func(ctx context.Context, mask authority.Action, tags []string, text string) (*verification.Result, error) {
		return &verification.Result{Status: verification.StatusPass}, nil
	})
}

var testCapabilities = []gate.Capability{
	{Name: "search_docs", Requires: authority.ActionRead},
	{Name: "edit_file", Requires: authority.ActionRead | authority.ActionWrite},
	{Name: "run_command", Requires: authority.ActionExecute},
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, echoGenerator()); err == nil {
		t.Error("expected error for nil ledger")
	}
	if _, err := New(newTestLedger(t), nil); err == nil {
		t.Error("expected error for nil generator")
	}
}

func TestOrchestrator_UnconstrainedTurnPasses(t *testing.T) {
	l := newTestLedger(t)
	o, err := New(l, echoGenerator())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := o.RunTurn(context.Background(), &TurnRequest{
		SessionID:    "s1",
		Turn:         1,
		Actor:        "user:bob",
		Input:        "hello",
		Capabilities: testCapabilities,
	})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if result.Status != StatusPass {
		t.Errorf("Status = %s, want PASS", result.Status)
	}
	if result.BoundaryActive {
		t.Error("BoundaryActive = true for an unconstrained session")
	}
	if result.Response != "echo: hello" {
		t.Errorf("Response = %q", result.Response)
	}
	if len(result.Granted) != len(testCapabilities) {
		t.Errorf("Granted = %d capabilities, want %d", len(result.Granted), len(testCapabilities))
	}
	if result.EffectiveMask != authority.ActionAll {
		t.Errorf("EffectiveMask = %s, want ALL", result.EffectiveMask)
	}
}

func TestOrchestrator_ConstrainedTurnVerified(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Establish(ctx, "s1", authority.BoundaryReadOnly, authority.RingSession, 1, "user:bob"); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	var sawTags []string
	verifier := verification.VerifierFunc(func(ctx context.Context, mask authority.Action, tags []string, text string) (*verification.Result, error) {
		sawTags = tags
		return &verification.Result{Status: verification.StatusPass}, nil
	})

	o, err := New(l, echoGenerator(), WithVerifier(verifier))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := o.RunTurn(ctx, &TurnRequest{
		SessionID:    "s1",
		Turn:         2,
		Actor:        "user:bob",
		Input:        "summarize",
		Capabilities: testCapabilities,
	})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if result.Status != StatusVerified {
		t.Errorf("Status = %s, want VERIFIED", result.Status)
	}
	if !result.BoundaryActive {
		t.Error("BoundaryActive = false with an active constraint")
	}
	if len(result.Granted) != 1 || result.Granted[0].Name != "search_docs" {
		t.Errorf("Granted = %v, want only search_docs", result.Granted)
	}
	if len(sawTags) != 1 || sawTags[0] != "read-only" {
		t.Errorf("verifier saw tags %v, want [read-only]", sawTags)
	}
	if result.Response == "" {
		t.Error("verified turn should keep its response")
	}
}

func TestOrchestrator_ViolationBlocksTurn(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Establish(ctx, "s1", authority.BoundaryNoPII, authority.RingOrganizational, 1, "admin:alice"); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	verifier := verification.VerifierFunc(func(ctx context.Context, mask authority.Action, tags []string, text string) (*verification.Result, error) {
		return &verification.Result{
			Status: verification.StatusViolation,
			Reason: "response leaks an email address",
		}, nil
	})

	o, err := New(l, echoGenerator(), WithVerifier(verifier))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := o.RunTurn(ctx, &TurnRequest{
		SessionID:    "s1",
		Turn:         2,
		Actor:        "user:bob",
		Input:        "who is the customer",
		Capabilities: testCapabilities,
	})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if result.Status != StatusBlocked {
		t.Errorf("Status = %s, want BLOCKED", result.Status)
	}
	if result.Response != "" {
		t.Errorf("blocked turn leaked response %q", result.Response)
	}
	if result.VerificationReason != "response leaks an email address" {
		t.Errorf("VerificationReason = %q", result.VerificationReason)
	}

	// The violation is on the audit trail.
	trail, err := l.AuditTrail(ctx, "s1")
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	last := trail[len(trail)-1]
	if last.Kind != audit.KindVerificationFlagged {
		t.Errorf("last event kind = %s, want VERIFICATION_FLAGGED", last.Kind)
	}
	if last.Turn != 2 || last.Actor != "user:bob" {
		t.Errorf("flag attribution = %q turn %d", last.Actor, last.Turn)
	}
}

func TestOrchestrator_VerifierFailureFailsClosed(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Establish(ctx, "s1", authority.BoundaryReadOnly, authority.RingSession, 1, "user:bob"); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	verifier := verification.VerifierFunc(func(ctx context.Context, mask authority.Action, tags []string, text string) (*verification.Result, error) {
		return nil, errors.New("collaborator unreachable")
	})

	o, err := New(l, echoGenerator(), WithVerifier(verifier))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := o.RunTurn(ctx, &TurnRequest{
		SessionID:    "s1",
		Turn:         2,
		Actor:        "user:bob",
		Input:        "hello",
		Capabilities: testCapabilities,
	})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if result.Status != StatusBlocked {
		t.Errorf("Status = %s, want BLOCKED (fail closed)", result.Status)
	}
	if result.Response != "" {
		t.Error("failed-closed turn leaked its response")
	}

	trail, err := l.AuditTrail(ctx, "s1")
	if err != nil {
		t.Fatalf("AuditTrail failed: %v", err)
	}
	if trail[len(trail)-1].Kind != audit.KindVerificationFlagged {
		t.Error("collaborator failure not flagged on the trail")
	}
}

func TestOrchestrator_VerifierFailureFailsOpenWhenUnconstrained(t *testing.T) {
	l := newTestLedger(t)

	verifier := verification.VerifierFunc(func(ctx context.Context, mask authority.Action, tags []string, text string) (*verification.Result, error) {
		return nil, errors.New("collaborator unreachable")
	})

	o, err := New(l, echoGenerator(), WithVerifier(verifier))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := o.RunTurn(context.Background(), &TurnRequest{
		SessionID:    "s1",
		Turn:         1,
		Actor:        "user:bob",
		Input:        "hello",
		Capabilities: testCapabilities,
	})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if result.Status != StatusPass {
		t.Errorf("Status = %s, want PASS (no constraint, verifier never invoked)", result.Status)
	}
	if result.Response == "" {
		t.Error("unconstrained turn lost its response")
	}
}

func TestOrchestrator_NoVerifierBlocksConstrainedTurn(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Establish(ctx, "s1", authority.BoundaryReadOnly, authority.RingSession, 1, "user:bob"); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	o, err := New(l, echoGenerator())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := o.RunTurn(ctx, &TurnRequest{
		SessionID:    "s1",
		Turn:         2,
		Actor:        "user:bob",
		Input:        "hello",
		Capabilities: testCapabilities,
	})
	if err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}
	if result.Status != StatusBlocked {
		t.Errorf("Status = %s, want BLOCKED without a verifier", result.Status)
	}
}

func TestOrchestrator_GeneratorErrorPropagates(t *testing.T) {
	l := newTestLedger(t)
	genErr := errors.New("model overloaded")
	o, err := New(l, GeneratorFunc(func(ctx context.Context, req *GenerationRequest) (string, error) {
		return "", genErr
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = o.RunTurn(context.Background(), &TurnRequest{
		SessionID: "s1",
		Turn:      1,
		Actor:     "user:bob",
		Input:     "hello",
	})
	if !errors.Is(err, genErr) {
		t.Errorf("RunTurn error = %v, want wrapped %v", err, genErr)
	}
}

func TestOrchestrator_InvalidCapabilitiesRejected(t *testing.T) {
	o, err := New(newTestLedger(t), echoGenerator())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = o.RunTurn(context.Background(), &TurnRequest{
		SessionID:    "s1",
		Turn:         1,
		Actor:        "user:bob",
		Capabilities: []gate.Capability{{Name: ""}},
	})
	if err == nil {
		t.Fatal("expected error for invalid capability list")
	}
}

func TestOrchestrator_GeneratorSeesOnlyGatedCapabilities(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Establish(ctx, "s1", authority.BoundaryReadOnly, authority.RingSession, 1, "user:bob"); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	var sawCaps []gate.Capability
	o, err := New(l, GeneratorFunc(func(ctx context.Context, req *GenerationRequest) (string, error) {
		sawCaps = req.Capabilities
		return "ok", nil
	}), WithVerifier(passVerifier()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := o.RunTurn(ctx, &TurnRequest{
		SessionID:    "s1",
		Turn:         2,
		Actor:        "user:bob",
		Capabilities: testCapabilities,
	}); err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if len(sawCaps) != 1 || sawCaps[0].Name != "search_docs" {
		t.Errorf("generator saw %v, want only search_docs", sawCaps)
	}
}

type countingTurnRecorder struct {
	turns    int
	statuses []TurnStatus
	removed  int
}

func (c *countingTurnRecorder) RecordTurn(status TurnStatus, latency time.Duration) {
	c.turns++
	c.statuses = append(c.statuses, status)
}

func (c *countingTurnRecorder) RecordFiltered(removed int) {
	c.removed += removed
}

func TestOrchestrator_RecorderObservesTurns(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	if err := l.Establish(ctx, "s1", authority.BoundaryReadOnly, authority.RingSession, 1, "user:bob"); err != nil {
		t.Fatalf("Establish failed: %v", err)
	}

	rec := &countingTurnRecorder{}
	o, err := New(l, echoGenerator(), WithVerifier(passVerifier()), WithRecorder(rec))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := o.RunTurn(ctx, &TurnRequest{
		SessionID:    "s1",
		Turn:         2,
		Actor:        "user:bob",
		Capabilities: testCapabilities,
	}); err != nil {
		t.Fatalf("RunTurn failed: %v", err)
	}

	if rec.turns != 1 || rec.statuses[0] != StatusVerified {
		t.Errorf("recorder turns = %+v", rec)
	}
	if rec.removed != 2 {
		t.Errorf("recorder removed = %d, want 2", rec.removed)
	}
}

package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// Status is the disposition of a verification check.
type Status string

const (
	// StatusPass means the response respects the active constraints.
	StatusPass Status = "PASS"

	// StatusViolation means the response breached an active constraint.
	StatusViolation Status = "VIOLATION"
)

// Result is the outcome of a verification check.
type Result struct {
	// Status is PASS or VIOLATION.
	Status Status

	// Reason explains a violation in one line. Empty on pass.
	Reason string

	// Evidence lists excerpts supporting a violation finding.
	Evidence []string
}

// Verifier checks a generated response against the session's effective mask
// and the enforcement tags of its active boundaries. Implementations are
// external collaborators (typically a fast secondary model) and may be slow
// or unreachable; always invoke them through WithTimeout.
type Verifier interface {
	// Check inspects responseText under the given mask and boundary tags.
	Check(ctx context.Context, mask authority.Action, tags []string, responseText string) (*Result, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, mask authority.Action, tags []string, responseText string) (*Result, error)

// Check implements Verifier.
func (f VerifierFunc) Check(ctx context.Context, mask authority.Action, tags []string, responseText string) (*Result, error) {
	return f(ctx, mask, tags, responseText)
}

// VerificationUnavailableError reports that the verification collaborator
// timed out or was unreachable. The orchestration layer must apply
// fail-closed policy whenever any ring is active.
type VerificationUnavailableError struct {
	Timeout time.Duration // Configured timeout, zero if not a timeout
	Cause   error         // Underlying error
}

// Error implements the error interface.
func (e *VerificationUnavailableError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("verification unavailable after %s: %v", e.Timeout, e.Cause)
	}
	return fmt.Sprintf("verification unavailable: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *VerificationUnavailableError) Unwrap() error {
	return e.Cause
}

// TimeoutVerifier wraps a Verifier with an explicit deadline. A check that
// exceeds the deadline or fails for any reason surfaces as
// *VerificationUnavailableError; the wrapped verifier's result is never
// partially observed.
type TimeoutVerifier struct {
	inner   Verifier
	timeout time.Duration
}

// WithTimeout wraps the verifier with the given deadline. A non-positive
// timeout defaults to 10 seconds.
func WithTimeout(inner Verifier, timeout time.Duration) *TimeoutVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TimeoutVerifier{inner: inner, timeout: timeout}
}

// Check implements Verifier.
func (v *TimeoutVerifier) Check(ctx context.Context, mask authority.Action, tags []string, responseText string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	type outcome struct {
		result *Result
		err    error
	}
	resultCh := make(chan outcome, 1)

	go func() {
		result, err := v.inner.Check(ctx, mask, tags, responseText)
		resultCh <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &VerificationUnavailableError{Timeout: v.timeout, Cause: ctx.Err()}
	case out := <-resultCh:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) {
				return nil, &VerificationUnavailableError{Timeout: v.timeout, Cause: out.err}
			}
			return nil, &VerificationUnavailableError{Cause: out.err}
		}
		return out.result, nil
	}
}

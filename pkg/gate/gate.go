package gate

import (
	"context"
	"fmt"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/ledger"
)

// Capability is one action a generation step could take: a name plus the
// permission bits it requires. The gate never interprets the name; it only
// compares Requires against the effective mask.
type Capability struct {
	// Name identifies the capability to the generation layer.
	Name string `json:"name" yaml:"name"`

	// Requires is the Action mask the capability needs.
	Requires authority.Action `json:"requires" yaml:"requires"`
}

// Filter returns, in original order, exactly those capabilities whose
// required actions are a subset of the mask. It is deterministic, total, and
// side-effect free, and it is idempotent: filtering a filtered list with the
// same mask returns it unchanged.
func Filter(capabilities []Capability, mask authority.Action) []Capability {
	filtered := make([]Capability, 0, len(capabilities))
	for _, capability := range capabilities {
		if mask.Permits(capability.Requires) {
			filtered = append(filtered, capability)
		}
	}
	return filtered
}

// ValidateCapabilities rejects capability lists with empty names or
// duplicate entries. Run it at capability-registration time so malformed
// lists fail eagerly rather than per turn.
func ValidateCapabilities(capabilities []Capability) error {
	seen := make(map[string]struct{}, len(capabilities))
	for i, capability := range capabilities {
		if capability.Name == "" {
			return fmt.Errorf("capability %d: empty name", i)
		}
		if _, dup := seen[capability.Name]; dup {
			return fmt.Errorf("capability %q: duplicate name", capability.Name)
		}
		seen[capability.Name] = struct{}{}
	}
	return nil
}

// Gate binds the pure filter to a ledger instance so callers can filter a
// session's capability list in one call. The ledger is injected; the gate
// holds no state of its own.
type Gate struct {
	ledger *ledger.Ledger
}

// New creates a gate over the given ledger.
func New(l *ledger.Ledger) *Gate {
	return &Gate{ledger: l}
}

// FilterCapabilities filters the capability list against the session's
// current effective mask.
func (g *Gate) FilterCapabilities(ctx context.Context, sessionID string, capabilities []Capability) ([]Capability, error) {
	mask, err := g.ledger.EffectiveMask(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return Filter(capabilities, mask), nil
}

// DescribeActive returns the session's active (ring, boundary type) pairs in
// ring order. It only reads ledger state; consumers building enforcement
// text use it, and no authorization logic runs here.
func (g *Gate) DescribeActive(ctx context.Context, sessionID string) ([]ledger.ActiveBoundary, error) {
	return g.ledger.ActiveBoundaries(ctx, sessionID)
}

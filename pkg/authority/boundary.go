package authority

import (
	"fmt"
	"sort"
	"sync"
)

// BoundaryType names a constraint profile. Each registered type maps to an
// Action mask and an opaque enforcement tag. The ledger treats types purely
// as mask lookups; the tag is carried for collaborators that build
// natural-language enforcement text and is never interpreted here.
type BoundaryType string

// Built-in boundary types. The set is extensible through Registry.Register
// but closed at registration time: an unregistered type is rejected eagerly
// with UnknownBoundaryTypeError, never parsed ad hoc per call.
const (
	// BoundaryInfoOnly permits explanation only: READ.
	BoundaryInfoOnly BoundaryType = "INFO_ONLY"

	// BoundaryReadOnly permits inspection but no mutation: READ.
	BoundaryReadOnly BoundaryType = "READ_ONLY"

	// BoundaryNoExecute permits planning and drafting but no execution:
	// READ|WRITE.
	BoundaryNoExecute BoundaryType = "NO_EXECUTE"

	// BoundaryNoSelfReplication forbids self-replicating output: READ|WRITE.
	BoundaryNoSelfReplication BoundaryType = "NO_SELF_REPLICATION"

	// BoundaryNoPII forbids emitting personally identifying information:
	// READ|WRITE|EXECUTE.
	BoundaryNoPII BoundaryType = "NO_PII"

	// BoundaryFullAccess permits everything: ALL.
	BoundaryFullAccess BoundaryType = "FULL_ACCESS"
)

// BoundaryProfile is a registered boundary type: the permission mask it
// grants and the opaque tag consumed by enforcement-text collaborators.
type BoundaryProfile struct {
	// Type is the boundary type name.
	Type BoundaryType

	// Allowed is the Action mask a constraint of this type permits.
	Allowed Action

	// Tag is opaque to the kernel. Collaborators that build enforcement
	// reminders or run semantic verification key off it.
	Tag string
}

// Registry is the closed set of boundary types known to a ledger instance.
// It is safe for concurrent use. Lookups of unregistered types fail with
// UnknownBoundaryTypeError.
type Registry struct {
	mu       sync.RWMutex
	profiles map[BoundaryType]BoundaryProfile
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[BoundaryType]BoundaryProfile)}
}

// DefaultRegistry returns a registry seeded with the built-in boundary types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []BoundaryProfile{
		{Type: BoundaryInfoOnly, Allowed: ActionRead, Tag: "info-only"},
		{Type: BoundaryReadOnly, Allowed: ActionRead, Tag: "read-only"},
		{Type: BoundaryNoExecute, Allowed: ActionRead | ActionWrite, Tag: "no-execute"},
		{Type: BoundaryNoSelfReplication, Allowed: ActionRead | ActionWrite, Tag: "no-self-replication"},
		{Type: BoundaryNoPII, Allowed: ActionRead | ActionWrite | ActionExecute, Tag: "no-pii"},
		{Type: BoundaryFullAccess, Allowed: ActionAll, Tag: "full-access"},
	} {
		// Built-in profiles are well-formed; Register cannot fail here.
		_ = r.Register(p)
	}
	return r
}

// Register adds a boundary type to the registry. Registering the same type
// twice replaces the earlier profile. The type name must be non-empty.
func (r *Registry) Register(profile BoundaryProfile) error {
	if profile.Type == "" {
		return fmt.Errorf("boundary profile: empty type name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.Type] = profile
	return nil
}

// Lookup resolves a boundary type to its profile. Unregistered types fail
// with UnknownBoundaryTypeError.
func (r *Registry) Lookup(t BoundaryType) (BoundaryProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[t]
	if !ok {
		return BoundaryProfile{}, &UnknownBoundaryTypeError{Type: t}
	}
	return profile, nil
}

// Types returns the registered boundary type names in sorted order.
func (r *Registry) Types() []BoundaryType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]BoundaryType, 0, len(r.profiles))
	for t := range r.profiles {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// BoundaryRecord is an active constraint occupying one ring slot of one
// session. Records are values; the ledger replaces the whole slot on
// establish and clears it on release, so a record is never mutated in place.
type BoundaryRecord struct {
	// Type is the boundary type the record was established with.
	Type BoundaryType `json:"type" yaml:"type"`

	// Ring is the ring level the record occupies.
	Ring RingLevel `json:"ring" yaml:"ring"`

	// Allowed is the Action mask resolved from the type at establish time.
	// Resolving once at establish time keeps the effective mask stable even
	// if the registry is later reconfigured.
	Allowed Action `json:"allowed" yaml:"allowed"`

	// EstablishedBy is the principal that established the record.
	EstablishedBy string `json:"established_by" yaml:"established_by"`

	// EstablishedAtTurn is the conversation turn the record was established
	// on.
	EstablishedAtTurn int `json:"established_at_turn" yaml:"established_at_turn"`
}

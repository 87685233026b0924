package resolver

import (
	"sync"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// Resolver maps a principal identifier to an authority level.
//
// Implementations must be safe for concurrent use. A principal that cannot
// be classified fails with *authority.UnknownPrincipalError; callers must not
// assume any default privilege unless the resolver was explicitly configured
// to grant one.
type Resolver interface {
	// Resolve returns the authority level of the given principal.
	Resolve(principal string) (authority.AuthorityLevel, error)
}

// Config configures resolver behavior shared by the static and file-backed
// implementations.
type Config struct {
	// DefaultToUser, when true, classifies unknown principals as USER (the
	// lowest privilege) instead of failing. This is an explicit policy
	// opt-in; the default is to reject unknown principals.
	DefaultToUser bool
}

// StaticResolver resolves principals against a fixed in-memory mapping.
type StaticResolver struct {
	mu     sync.RWMutex
	levels map[string]authority.AuthorityLevel
	config Config
}

// NewStaticResolver creates a resolver over the given principal mapping.
// The mapping is copied; later changes to the argument do not affect the
// resolver.
func NewStaticResolver(levels map[string]authority.AuthorityLevel, config Config) *StaticResolver {
	copied := make(map[string]authority.AuthorityLevel, len(levels))
	for principal, level := range levels {
		copied[principal] = level
	}
	return &StaticResolver{levels: copied, config: config}
}

// Resolve returns the authority level of the given principal. Unknown
// principals fail with *authority.UnknownPrincipalError unless the resolver
// was configured with DefaultToUser.
func (r *StaticResolver) Resolve(principal string) (authority.AuthorityLevel, error) {
	r.mu.RLock()
	level, ok := r.levels[principal]
	r.mu.RUnlock()

	if ok {
		return level, nil
	}
	if r.config.DefaultToUser {
		return authority.AuthorityUser, nil
	}
	return 0, &authority.UnknownPrincipalError{Principal: principal}
}

// Set adds or replaces the mapping for a principal.
func (r *StaticResolver) Set(principal string, level authority.AuthorityLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[principal] = level
}

// Remove deletes the mapping for a principal.
func (r *StaticResolver) Remove(principal string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.levels, principal)
}

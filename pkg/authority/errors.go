package authority

import "fmt"

// AuthorizationError reports that an actor's resolved authority is
// insufficient for a requested ring mutation, or that the mutation targets
// the immutable constitutional ring. Authorization denials are final for the
// call that raised them; there is no automatic retry.
type AuthorizationError struct {
	Actor  string         // Principal that attempted the mutation
	Level  AuthorityLevel // Actor's resolved authority level
	Ring   RingLevel      // Ring the mutation targeted
	Reason string         // Human-readable denial reason
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization denied [actor=%s, level=%s, ring=%s]: %s",
		e.Actor, e.Level, e.Ring, e.Reason)
}

// NewAuthorizationError creates a new AuthorizationError.
func NewAuthorizationError(actor string, level AuthorityLevel, ring RingLevel, reason string) *AuthorizationError {
	return &AuthorizationError{
		Actor:  actor,
		Level:  level,
		Ring:   ring,
		Reason: reason,
	}
}

// UnknownPrincipalError reports that the resolver could not classify a
// principal. The kernel never falls back to a default privilege unless the
// resolver was explicitly configured to do so.
type UnknownPrincipalError struct {
	Principal string // Principal identifier that could not be classified
}

// Error implements the error interface.
func (e *UnknownPrincipalError) Error() string {
	return fmt.Sprintf("unknown principal %q", e.Principal)
}

// UnknownBoundaryTypeError reports that a boundary type was supplied that is
// not present in the registry. This is a configuration error: boundary types
// are registered up front, not discovered per call.
type UnknownBoundaryTypeError struct {
	Type BoundaryType // Unregistered boundary type
}

// Error implements the error interface.
func (e *UnknownBoundaryTypeError) Error() string {
	return fmt.Sprintf("unknown boundary type %q", string(e.Type))
}

// StorageError reports a failure in a ledger storage backend.
type StorageError struct {
	Backend   string // Storage backend ("memory", "sqlite", ...)
	Operation string // Operation that failed ("mutate", "snapshot", "trail", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// Package storage provides the persistence backends for the boundary ledger.
//
// The Store interface is a transactional read-modify-write primitive: a
// mutation reads the session's ring slots, applies a caller-supplied
// function, and persists the resulting slots together with the audit events
// the function produced, as one atomic step. No observer ever sees a mutated
// slot without its audit entry or vice versa.
//
// Two backends are provided: MemoryStore for single-process deployments and
// tests, and SQLiteStore for durable operation where admin and session-level
// writers may race.
package storage

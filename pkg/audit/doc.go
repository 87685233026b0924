// Package audit defines the append-only audit event model for the authority
// boundary ledger. Every establish, release, denied action, and verification
// flag produces exactly one event; events are immutable once appended and
// ordered by turn number within a session, with ties broken by append order.
//
// Events are persisted by the ledger storage backend in the same atomic step
// as the ring-slot mutation they describe; this package holds only the types.
package audit

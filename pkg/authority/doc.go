// Package authority defines the core types of the authority boundary system:
// the Action permission bitmask, the ring and authority-level hierarchies,
// boundary types and their registry, boundary records, and the error taxonomy
// shared by the ledger, gate, and resolver.
//
// The package is deliberately free of I/O and side effects. Everything here is
// a value type or a pure lookup so that the ledger can give mechanical
// guarantees about what it computes from these types.
package authority

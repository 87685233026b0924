// Package ledger implements the boundary ledger: the authority-state engine
// that holds one optional active constraint per ring per session, gates
// establish and release calls on the caller's resolved authority level, and
// appends an audit event for every attempt, granted or denied, atomically
// with the ring-slot mutation.
//
// The merge engine lives here too: the effective permission mask of a
// session is the bitwise AND of all active ring masks, so constraints only
// ever narrow permission as rings accumulate, and a session with no active
// constraints is fully permitted.
package ledger

// Package verification defines the narrow contract to the external
// post-generation response checker. The checker is probabilistic and
// best-effort: it lives behind its own interface, structurally separate from
// the mechanical capability filter, so callers can reason about guarantees
// per layer.
//
// The kernel's only obligations toward this collaborator are to invoke it
// with an explicit timeout and to treat its absence as a violation whenever
// any ring holds an active record (fail-closed). Fail-open applies only when
// no constraint is active.
package verification

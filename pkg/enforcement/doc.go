// Package enforcement orchestrates a single constrained generation turn:
// read the session's effective mask, filter the capability list through the
// gate, hand the filtered set to the generation collaborator, run the
// verification collaborator over the response, and classify the turn.
//
// The generation call itself and the semantic checker are external
// collaborators behind narrow interfaces. Ledger mutations made before
// generation are committed atomically and are unaffected by cancellation of
// the generation step; verification happens strictly after generation and
// only ever appends an audit event.
package enforcement

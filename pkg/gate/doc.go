// Package gate implements the deterministic capability filter. Given a
// capability list and an effective permission mask, Filter returns exactly
// those capabilities whose required actions are a subset of the mask, in
// their original order.
//
// Filtering is the one mechanism treated as a hard guarantee: a capability
// absent from the filtered output is physically absent from whatever is
// handed to generation, not merely annotated as forbidden.
package gate

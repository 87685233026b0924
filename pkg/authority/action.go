package authority

import "strings"

// Action is a bitmask over the atomic capabilities a tool or operation may
// require. Permission checks are subset checks: an action A is permitted
// under a mask M when every bit of A is present in M.
type Action uint8

const (
	// ActionNone permits nothing. It is the zero value.
	ActionNone Action = 0

	// ActionRead permits read-only access.
	ActionRead Action = 1 << 0

	// ActionWrite permits state-changing writes.
	ActionWrite Action = 1 << 1

	// ActionExecute permits tool or command execution.
	ActionExecute Action = 1 << 2

	// ActionDelete permits destructive removal.
	ActionDelete Action = 1 << 3
)

// ActionAll permits every defined action.
const ActionAll = ActionRead | ActionWrite | ActionExecute | ActionDelete

// Permits reports whether every bit of required is present in the mask.
// An empty required action is always permitted.
func (a Action) Permits(required Action) bool {
	return a&required == required
}

// Intersect returns the bitwise AND of two masks. Intersection can only
// restrict, never expand: the result is a subset of both operands.
func (a Action) Intersect(other Action) Action {
	return a & other
}

// Union returns the bitwise OR of two masks.
func (a Action) Union(other Action) Action {
	return a | other
}

// String returns a pipe-separated list of the action names in the mask,
// "NONE" for the empty mask, and "ALL" for the full mask.
func (a Action) String() string {
	if a == ActionNone {
		return "NONE"
	}
	if a == ActionAll {
		return "ALL"
	}

	var parts []string
	if a&ActionRead != 0 {
		parts = append(parts, "READ")
	}
	if a&ActionWrite != 0 {
		parts = append(parts, "WRITE")
	}
	if a&ActionExecute != 0 {
		parts = append(parts, "EXECUTE")
	}
	if a&ActionDelete != 0 {
		parts = append(parts, "DELETE")
	}
	return strings.Join(parts, "|")
}

// ParseAction parses a pipe-separated action list ("READ|WRITE") as produced
// by String. "NONE" and "ALL" parse to their respective masks. Unknown names
// return ActionNone and false.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "NONE", "":
		return ActionNone, true
	case "ALL":
		return ActionAll, true
	}

	var mask Action
	for _, part := range strings.Split(s, "|") {
		switch strings.TrimSpace(part) {
		case "READ":
			mask |= ActionRead
		case "WRITE":
			mask |= ActionWrite
		case "EXECUTE":
			mask |= ActionExecute
		case "DELETE":
			mask |= ActionDelete
		default:
			return ActionNone, false
		}
	}
	return mask, true
}

package authority

import "fmt"

// RingLevel identifies a level in the authority hierarchy. Lower numeric
// values carry strictly higher authority: a constitutional constraint
// outranks an organizational one, which outranks a session one. The set is
// closed; there are exactly three rings.
type RingLevel int

const (
	// RingConstitutional is the system-level ring. Constraints established
	// here are immutable for the lifetime of the session: no actor, at any
	// authority level, can release them.
	RingConstitutional RingLevel = 0

	// RingOrganizational is the admin-level ring.
	RingOrganizational RingLevel = 1

	// RingSession is the user-level ring.
	RingSession RingLevel = 2
)

// Rings lists all ring levels in precedence order (highest authority first).
var Rings = []RingLevel{RingConstitutional, RingOrganizational, RingSession}

// Valid reports whether the ring level is one of the three defined rings.
func (r RingLevel) Valid() bool {
	return r >= RingConstitutional && r <= RingSession
}

// String returns the ring name.
func (r RingLevel) String() string {
	switch r {
	case RingConstitutional:
		return "CONSTITUTIONAL"
	case RingOrganizational:
		return "ORGANIZATIONAL"
	case RingSession:
		return "SESSION"
	default:
		return fmt.Sprintf("RingLevel(%d)", int(r))
	}
}

// AuthorityLevel classifies a principal's privilege. It mirrors RingLevel
// numerically: a principal may mutate a ring when its authority level is
// numerically less than or equal to the ring.
type AuthorityLevel int

const (
	// AuthoritySystem is the highest privilege, able to mutate any ring.
	AuthoritySystem AuthorityLevel = 0

	// AuthorityAdmin can mutate the organizational and session rings.
	AuthorityAdmin AuthorityLevel = 1

	// AuthorityUser can mutate only the session ring.
	AuthorityUser AuthorityLevel = 2
)

// Valid reports whether the authority level is one of the defined levels.
func (l AuthorityLevel) Valid() bool {
	return l >= AuthoritySystem && l <= AuthorityUser
}

// CanMutate reports whether a principal at this authority level is permitted
// to establish or release a constraint on the given ring. Lower numeric
// authority is stronger, so the check is level <= ring.
func (l AuthorityLevel) CanMutate(ring RingLevel) bool {
	return int(l) <= int(ring)
}

// String returns the authority level name.
func (l AuthorityLevel) String() string {
	switch l {
	case AuthoritySystem:
		return "SYSTEM"
	case AuthorityAdmin:
		return "ADMIN"
	case AuthorityUser:
		return "USER"
	default:
		return fmt.Sprintf("AuthorityLevel(%d)", int(l))
	}
}

// ParseAuthorityLevel parses an authority level name ("SYSTEM", "ADMIN",
// "USER", case-sensitive) as used in identity map files.
func ParseAuthorityLevel(s string) (AuthorityLevel, error) {
	switch s {
	case "SYSTEM":
		return AuthoritySystem, nil
	case "ADMIN":
		return AuthorityAdmin, nil
	case "USER":
		return AuthorityUser, nil
	default:
		return 0, fmt.Errorf("unknown authority level %q", s)
	}
}

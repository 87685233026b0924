package ledger

import (
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// Merge computes the effective permission mask from a session's active ring
// records: the bitwise AND of every active record's mask. An empty ring
// contributes no restriction, and a session with zero active records is
// fully permitted (ALL).
//
// Conflict resolution across rings is intersection, not priority override:
// there is no combination of active constraints whose merge is wider than
// any one of them.
func Merge(slots map[authority.RingLevel]authority.BoundaryRecord) authority.Action {
	mask := authority.ActionAll
	for _, record := range slots {
		mask = mask.Intersect(record.Allowed)
	}
	return mask
}

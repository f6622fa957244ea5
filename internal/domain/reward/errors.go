package reward

import "errors"

// Sentinel kinds for precondition faults. These are configuration errors,
// never data errors: malformed-but-well-typed snapshots are absorbed, not
// rejected.
var (
	ErrInvalidWeights  = errors.New("reward weights must sum to 1.0")
	ErrInvalidTiers    = errors.New("reward tiers must satisfy 0 <= low < high <= 1")
	ErrInvalidSnapshot = errors.New("invalid metrics snapshot")
)

package balance

import "errors"

// Sentinel kinds for balancing errors.
var (
	// ErrInvalidPoolSize flags a pool that is not exactly the required
	// size (16 for two teams, 24 for three).
	ErrInvalidPoolSize = errors.New("invalid player pool size")
)

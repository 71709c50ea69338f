package rating

import "errors"

// Sentinel kinds for rating-update errors. All are detected before any
// state is mutated.
var (
	// ErrInvalidMatch flags empty or overlapping participant sets.
	ErrInvalidMatch = errors.New("invalid match")
	// ErrInvalidMVP flags an MVP list that is not a per-team subset of the
	// participants.
	ErrInvalidMVP = errors.New("invalid mvp selection")
	// ErrMissingPlayers flags participant ids absent from the store.
	ErrMissingPlayers = errors.New("players not found")
	// ErrDegenerateMatch flags a numerically degenerate update (non-finite
	// or non-positive combined variance).
	ErrDegenerateMatch = errors.New("degenerate match configuration")
)

package app

import "errors"

// Sentinel error kinds for the service facade.
var (
	ErrDuplicateMatch = errors.New("match already processed")
	ErrUnknownPlayers = errors.New("unknown players in pool")
)

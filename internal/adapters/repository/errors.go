package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrAlreadyExists = errors.New("player already registered")
)

package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrNoToken      = errors.New("no session token")
	ErrInvalidToken = errors.New("invalid session token")
)

package repository

import "errors"

// Sentinel kinds for row store errors.
var (
	ErrNotFound          = errors.New("row not found")
	ErrMultipleRows      = errors.New("more than one row")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUnknownDriver     = errors.New("unknown store driver")
)

package memory

import "errors"

var (
	ErrClosed  = errors.New("memory store closed")
	ErrNoTable = errors.New("no such table")
)

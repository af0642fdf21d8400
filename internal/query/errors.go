package query

import (
	"errors"
	"fmt"
)

var (
	// ErrStore matches every StoreError through errors.Is.
	ErrStore = errors.New("row store query failed")
	// ErrDecode marks a row that could not be decoded into its model.
	ErrDecode = errors.New("undecodable row")
	// ErrUnknownPlace is returned by Place when no row has the id.
	ErrUnknownPlace = errors.New("unknown place")
)

// StoreError is the only error kind the query layer surfaces for store
// failures. It unwraps to the backend's cause.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports ErrStore as a match.
func (e *StoreError) Is(target error) bool { return target == ErrStore }

package service

import (
	"errors"

	"github.com/okian/brandboard/internal/query"
)

// Sentinel kinds for service errors.
var (
	ErrBackpressure = errors.New("selection queue full")
	ErrNotStarted   = errors.New("service not started")
	ErrUnknownPlace = query.ErrUnknownPlace
)

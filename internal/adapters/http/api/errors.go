package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/brandboard/internal/app"
	"github.com/okian/brandboard/internal/query"
	"github.com/okian/brandboard/internal/validation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = service.ErrBackpressure
	ErrNotFound     = service.ErrUnknownPlace
)

// Error codes rendered in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeNotFound         = "not_found"
	codeBackpressure     = "backpressure"
	codeStoreUnavailable = "store_unavailable"
	codeInternal         = "internal_error"
)

// wrapKind attaches op and a sentinel kind to err.
func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// classify maps err to a status and an error code.
func classify(err error) (int, string) {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrBadRequest), errors.As(err, &verr):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, query.ErrStore):
		return http.StatusBadGateway, codeStoreUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

package api

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/okian/brandboard/internal/domain/selection"
	"github.com/okian/brandboard/internal/validation"
	"github.com/okian/brandboard/pkg/logger"
)

// maxSelectBody bounds PUT /api/selection bodies.
const maxSelectBody = 4 << 10

// selectRequest mirrors the OpenAPI schema for PUT /api/selection.
type selectRequest struct {
	PlaceID string `json:"place_id" validate:"required"`
}

type selectResponse struct {
	selection.Ticket
	State selection.State `json:"state"`
}

// handleSelect handles PUT /api/selection.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.handleSelect"

	var req selectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSelectBody)).Decode(&req); err != nil {
		s.writeError(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	req.PlaceID = strings.TrimSpace(req.PlaceID)
	if err := validation.Struct(req); err != nil {
		s.writeError(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}

	viewer := s.viewer(w, r)
	ticket, err := s.deps.Select(r.Context(), viewer, req.PlaceID)
	if err != nil {
		s.logger.Warn(r.Context(), "selection not started",
			logger.String("place_id", req.PlaceID), logger.Error(err))
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, selectResponse{Ticket: ticket, State: selection.Loading})
}

// handleSelection handles GET /api/selection.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	const op = "api.handleSelection"

	g, err := s.granularity(r)
	if err != nil {
		s.writeError(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Selection(r.Context(), s.viewer(w, r), g))
}

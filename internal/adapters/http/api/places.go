package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/brandboard/internal/domain/model"
	"github.com/okian/brandboard/internal/domain/timeline"
	"github.com/okian/brandboard/internal/validation"
)

// viewQuery holds the query parameters of the view endpoints.
type viewQuery struct {
	Granularity string `json:"granularity" validate:"omitempty,oneof=weekly monthly"`
}

type placesResponse struct {
	Places    []model.Place `json:"places"`
	Truncated bool          `json:"truncated"`
}

// handleSearchPlaces handles GET /api/places?q=.
func (s *Server) handleSearchPlaces(w http.ResponseWriter, r *http.Request) {
	places, err := s.deps.SearchPlaces(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := placesResponse{Places: places}
	if resp.Places == nil {
		resp.Places = []model.Place{}
	}
	if s.maxPlaces > 0 && len(resp.Places) > s.maxPlaces {
		resp.Places = resp.Places[:s.maxPlaces]
		resp.Truncated = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDashboard handles GET /api/places/{placeID}/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.handleDashboard"

	placeID := strings.TrimSpace(chi.URLParam(r, "placeID"))
	if placeID == "" {
		s.writeError(w, r, wrapKind(op, ErrBadRequest, errMissingPlace))
		return
	}
	g, err := s.granularity(r)
	if err != nil {
		s.writeError(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}

	view, err := s.deps.Dashboard(r.Context(), placeID, g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// granularity reads ?granularity=, falling back to the service default.
func (s *Server) granularity(r *http.Request) (timeline.Granularity, error) {
	q := viewQuery{Granularity: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("granularity")))}
	if err := validation.Struct(q); err != nil {
		return "", err
	}
	if q.Granularity == "" {
		return s.deps.DefaultGranularity(), nil
	}
	return timeline.Granularity(q.Granularity), nil
}

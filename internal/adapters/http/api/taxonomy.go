package api

import (
	"net/http"

	"github.com/okian/brandboard/internal/domain/attributes"
)

type taxonomyResponse struct {
	Attributes attributes.Taxonomy `json:"attributes"`
}

// handleTaxonomy handles GET /api/taxonomy.
func (s *Server) handleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, taxonomyResponse{Attributes: s.deps.Taxonomy()})
}

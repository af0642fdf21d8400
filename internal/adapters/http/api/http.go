// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	service "github.com/okian/brandboard/internal/app"
	"github.com/okian/brandboard/internal/domain/attributes"
	"github.com/okian/brandboard/internal/domain/model"
	"github.com/okian/brandboard/internal/domain/selection"
	"github.com/okian/brandboard/internal/domain/timeline"
	"github.com/okian/brandboard/pkg/logger"
)

const (
	defaultRateLimit    = 300
	defaultRateWindow   = time.Minute
	defaultMaxPlaces    = 500
	defaultViewerCookie = "bb_viewer"
	corsMaxAge          = 300
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SearchPlaces(ctx context.Context, term string) ([]model.Place, error)
	Dashboard(ctx context.Context, placeID string, g timeline.Granularity) (View, error)

	// Select starts a background load. Returns ErrBackpressure when the
	// queue is full.
	Select(ctx context.Context, viewer, placeID string) (selection.Ticket, error)
	Selection(ctx context.Context, viewer string, g timeline.Granularity) View

	Taxonomy() attributes.Taxonomy
	DefaultGranularity() timeline.Granularity
}

// View mirrors the rendered dashboard returned by the service.
type View = service.View

// Server wires HTTP routes for the dashboard API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler

	corsOrigins  []string
	rateLimit    int
	rateWindow   time.Duration
	maxPlaces    int
	viewerCookie string

	logger logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		corsOrigins:   []string{"*"},
		rateLimit:     defaultRateLimit,
		rateWindow:    defaultRateWindow,
		maxPlaces:     defaultMaxPlaces,
		viewerCookie:  defaultViewerCookie,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         corsMaxAge,
		}))
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, s.rateWindow))
		}

		r.Get("/places", MetricsMiddleware(s.handleSearchPlaces, "places"))
		r.Get("/places/{placeID}/dashboard", MetricsMiddleware(s.handleDashboard, "dashboard"))
		r.Put("/selection", MetricsMiddleware(s.handleSelect, "select"))
		r.Get("/selection", MetricsMiddleware(s.handleSelection, "selection"))
		r.Get("/taxonomy", MetricsMiddleware(s.handleTaxonomy, "taxonomy"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status its kind maps to.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

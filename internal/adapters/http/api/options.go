package api

import (
	"time"

	"github.com/okian/brandboard/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the origins allowed to call the API.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = append([]string(nil), origins...)
	}
}

// WithRateLimit allows n API requests per window and client IP. n <= 0
// disables limiting.
func WithRateLimit(n int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = n
		if window > 0 {
			s.rateWindow = window
		}
	}
}

// WithMaxPlaces caps search results; 0 means unlimited.
func WithMaxPlaces(n int) Option {
	return func(s *Server) {
		if n >= 0 {
			s.maxPlaces = n
		}
	}
}

// WithViewerCookie renames the anonymous viewer cookie.
func WithViewerCookie(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.viewerCookie = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

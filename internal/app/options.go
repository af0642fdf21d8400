package service

import (
	"time"

	"github.com/okian/brandboard/internal/domain/attributes"
	"github.com/okian/brandboard/internal/domain/timeline"
	"github.com/okian/brandboard/internal/query"
	"github.com/okian/brandboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of selection load workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending selection loads.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithIdleTTL sets how long an untouched viewer's state is kept.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithTables overrides the row store table names.
func WithTables(t query.Tables) Option {
	return func(s *Service) { s.tables = t }
}

// WithTaxonomy sets the attribute taxonomy tallied on the dashboard.
func WithTaxonomy(t attributes.Taxonomy) Option {
	return func(s *Service) {
		if len(t) > 0 {
			s.taxonomy = t
		}
	}
}

// WithLocation sets the zone timestamps are bucketed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithDefaultGranularity sets the granularity used when a request names none.
func WithDefaultGranularity(g timeline.Granularity) Option {
	return func(s *Service) {
		if g != "" {
			s.granularity = g
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

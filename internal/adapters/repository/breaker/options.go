package breaker

import (
	"time"

	"github.com/okian/brandboard/pkg/logger"
)

// Option configures a Store.
type Option func(*Store)

// WithMaxRequests caps the probes let through while half-open.
func WithMaxRequests(n uint32) Option {
	return func(s *Store) { s.settings.MaxRequests = n }
}

// WithInterval sets how often closed-state counts are cleared.
func WithInterval(d time.Duration) Option {
	return func(s *Store) { s.settings.Interval = d }
}

// WithTimeout sets how long the breaker stays open before probing.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.settings.Timeout = d }
}

// WithTripThreshold opens the breaker once at least minRequests were seen
// and the failure ratio reaches ratio.
func WithTripThreshold(minRequests uint32, ratio float64) Option {
	return func(s *Store) {
		s.minRequests = minRequests
		s.failureRatio = ratio
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.logger = l }
}

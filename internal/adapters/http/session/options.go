package session

import "github.com/okian/brandboard/pkg/logger"

// Option configures a Middleware.
type Option func(*Middleware)

// WithLogger sets the logger used for failed onboarding lookups.
func WithLogger(l logger.Logger) Option {
	return func(m *Middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

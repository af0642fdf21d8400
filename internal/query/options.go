package query

import "github.com/okian/brandboard/pkg/logger"

// Option configures a Querier.
type Option func(*Querier)

// WithTables overrides the table names.
func WithTables(t Tables) Option {
	return func(q *Querier) { q.tables = t }
}

// WithLogger sets the logger used for failed lookups.
func WithLogger(l logger.Logger) Option {
	return func(q *Querier) { q.logger = l }
}

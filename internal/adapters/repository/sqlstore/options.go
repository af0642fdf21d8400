package sqlstore

// Option customises Open.
type Option func(*options)

type options struct {
	maxOpenConns int
	schemas      []string
	ping         bool
}

func defaults() options {
	return options{maxOpenConns: 10, ping: true}
}

// WithMaxOpenConns caps the pool size. In-memory SQLite always uses one.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithSchema queues SQL to execute right after opening.
func WithSchema(stmt string) Option {
	return func(o *options) { o.schemas = append(o.schemas, stmt) }
}

// WithoutPing skips the connectivity check.
func WithoutPing() Option {
	return func(o *options) { o.ping = false }
}

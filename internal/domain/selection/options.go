package selection

import "time"

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithIdleTTL sets how long an untouched viewer survives Sweep.
// Non-positive values disable eviction.
func WithIdleTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		t.idleTTL = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Package selection tracks each viewer's current place selection as a small
// state machine. Every Begin bumps a generation counter; results carrying an
// older generation are dropped, so a slow load can never overwrite a newer one.
package selection

import (
	"context"
	"sync"
	"time"
)

// State of a viewer's selection.
type State string

const (
	Idle    State = "idle"
	Loading State = "loading"
	Ready   State = "ready"
	Partial State = "partial"
	Failed  State = "failed"
)

// Ticket identifies one selection attempt.
type Ticket struct {
	Viewer     string `json:"-"`
	PlaceID    string `json:"place_id"`
	Generation uint64 `json:"generation"`
}

// Snapshot is a copy of a viewer's selection state.
type Snapshot struct {
	Viewer     string
	PlaceID    string
	Generation uint64
	State      State
	Result     Result
	UpdatedAt  time.Time
}

type entry struct {
	placeID string
	gen     uint64
	state   State
	result  Result
	cancel  context.CancelFunc
	updated time.Time
	touched time.Time
}

// Tracker holds selection state for every viewer. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	viewers map[string]*entry
	idleTTL time.Duration
	now     func() time.Time
}

// NewTracker creates a Tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		viewers: make(map[string]*entry),
		idleTTL: 30 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin starts a new selection for viewer and moves it to Loading. Any load
// still running for the viewer is cancelled. The returned context is derived
// from parent and is cancelled when the selection is superseded or completed.
func (t *Tracker) Begin(parent context.Context, viewer, placeID string) (Ticket, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.viewers[viewer]
	if !ok {
		e = &entry{}
		t.viewers[viewer] = e
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	e.placeID = placeID
	e.state = Loading
	e.result = Result{}
	e.cancel = cancel
	e.updated = t.now()
	e.touched = e.updated

	return Ticket{Viewer: viewer, PlaceID: placeID, Generation: e.gen}, ctx
}

// Complete applies r if ticket is still the viewer's current generation.
// It reports false when the result was stale and discarded.
func (t *Tracker) Complete(ticket Ticket, r Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.viewers[ticket.Viewer]
	if !ok || e.gen != ticket.Generation || e.state != Loading {
		return false
	}
	e.state = r.State()
	e.result = r
	e.updated = t.now()
	e.touched = e.updated
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	return true
}

// Snapshot returns the viewer's state. Unknown viewers are Idle.
func (t *Tracker) Snapshot(viewer string) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.viewers[viewer]
	if !ok {
		return Snapshot{Viewer: viewer, State: Idle}
	}
	e.touched = t.now()
	return Snapshot{
		Viewer:     viewer,
		PlaceID:    e.placeID,
		Generation: e.gen,
		State:      e.state,
		Result:     e.result,
		UpdatedAt:  e.updated,
	}
}

// Sweep evicts viewers untouched for longer than the idle TTL, cancelling
// their in-flight loads. It returns the number evicted.
func (t *Tracker) Sweep() int {
	if t.idleTTL <= 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.idleTTL)
	evicted := 0
	for viewer, e := range t.viewers {
		if e.touched.After(cutoff) {
			continue
		}
		if e.cancel != nil {
			e.cancel()
		}
		delete(t.viewers, viewer)
		evicted++
	}
	return evicted
}

// Len returns the number of tracked viewers.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.viewers)
}

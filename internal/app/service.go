// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	eventqueue "github.com/okian/brandboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/brandboard/internal/adapters/mq/worker"
	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/internal/domain/attributes"
	"github.com/okian/brandboard/internal/domain/model"
	"github.com/okian/brandboard/internal/domain/selection"
	"github.com/okian/brandboard/internal/domain/timeline"
	"github.com/okian/brandboard/internal/query"
	"github.com/okian/brandboard/pkg/logger"
	"github.com/okian/brandboard/pkg/metrics"
)

const (
	defaultQueueSize = 1024
	defaultIdleTTL   = 30 * time.Minute
	minSweepInterval = time.Second
	maxSweepInterval = time.Minute
)

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	query      *query.Querier
	tracker    *selection.Tracker
	queue      eventqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	idleTTL     time.Duration
	tables      query.Tables
	taxonomy    attributes.Taxonomy
	location    *time.Location
	granularity timeline.Granularity

	// State
	started bool
	baseCtx context.Context
	stop    context.CancelFunc
	swept   chan struct{}

	logger logger.Logger
}

// New constructs a Service reading from store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		idleTTL:     defaultIdleTTL,
		tables:      query.DefaultTables(),
		taxonomy:    attributes.DefaultTaxonomy(),
		location:    time.UTC,
		granularity: timeline.Weekly,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.query = query.New(store, query.WithTables(s.tables), query.WithLogger(s.logger.Named("query")))
	s.tracker = selection.NewTracker(selection.WithIdleTTL(s.idleTTL))

	return s
}

// Start launches the worker pool and the idle viewer sweeper.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting dashboard service...")

	// Loads outlive the request that started them.
	s.baseCtx, s.stop = context.WithCancel(context.WithoutCancel(ctx))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s, s.tracker)
	s.workerPool.Start(s.baseCtx)

	s.swept = make(chan struct{})
	go s.sweep(s.baseCtx)

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("idleTTL", s.idleTTL),
	)

	return nil
}

// Stop drains pending loads and shuts the service down. The store is closed.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping dashboard service...")

	err := s.workerPool.Shutdown(ctx)
	s.stop()
	<-s.swept

	if cerr := s.store.Close(); cerr != nil {
		s.logger.Error(ctx, "error closing row store", logger.Error(cerr))
	}

	s.started = false
	s.logger.Info(ctx, "dashboard service stopped")
	return err
}

// Load resolves placeID and then runs its four lookups. An unknown place
// fails every lookup; a place table error is logged and the lookups still run.
func (s *Service) Load(ctx context.Context, placeID string) selection.Result {
	_, err := s.query.Place(ctx, placeID)
	if errors.Is(err, ErrUnknownPlace) {
		s.logger.Debug(ctx, "selection of unknown place", logger.String("place_id", placeID))
		return selection.FailedResult(fmt.Errorf("service.Load: %w: %q", ErrUnknownPlace, placeID))
	}
	return s.fetch(ctx, placeID)
}

// fetch runs the four lookups for placeID concurrently and waits for all of
// them. A failed lookup does not cancel the others.
func (s *Service) fetch(ctx context.Context, placeID string) selection.Result {
	start := time.Now()
	defer func() {
		metrics.RecordSelectionLoadLatency(float64(time.Since(start).Milliseconds()))
	}()

	var (
		r selection.Result
		g errgroup.Group
	)
	g.Go(func() error {
		r.Likes = outcome(s.query.Likes(ctx, placeID))
		return nil
	})
	g.Go(func() error {
		r.Dislikes = outcome(s.query.Dislikes(ctx, placeID))
		return nil
	})
	g.Go(func() error {
		r.Likers = outcome(s.query.LikingUserAttributes(ctx, placeID))
		return nil
	})
	g.Go(func() error {
		r.Dislikers = outcome(s.query.DislikingUserAttributes(ctx, placeID))
		return nil
	})
	_ = g.Wait()

	return r
}

func outcome[T any](v T, err error) selection.Outcome[T] {
	if err != nil {
		return selection.Err[T](err)
	}
	return selection.Ok(v)
}

// Dashboard loads and renders placeID synchronously.
func (s *Service) Dashboard(ctx context.Context, placeID string, g timeline.Granularity) (View, error) {
	place, err := s.query.Place(ctx, placeID)
	if err != nil {
		return View{}, err
	}

	v := s.Render(s.fetch(ctx, placeID), g)
	v.PlaceID = placeID
	v.Place = &place
	return v, nil
}

// Select starts loading placeID for viewer in the background. When the queue
// is full the selection is marked failed and ErrBackpressure is returned.
func (s *Service) Select(ctx context.Context, viewer, placeID string) (selection.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return selection.Ticket{}, ErrNotStarted
	}

	ticket, jobCtx := s.tracker.Begin(s.baseCtx, viewer, placeID)
	metrics.RecordSelectionStarted()
	metrics.UpdateTrackedViewers(s.tracker.Len())

	job := model.NewLoadJob(jobCtx, viewer, placeID, ticket.Generation)
	if !s.queue.Enqueue(ctx, job) {
		s.tracker.Complete(ticket, selection.FailedResult(ErrBackpressure))
		metrics.RecordSelectionOutcome(string(selection.Failed))
		s.logger.Warn(ctx, "selection rejected",
			logger.String("place_id", placeID),
			logger.Int("queueLength", s.queue.Len(ctx)))
		return ticket, fmt.Errorf("service.Select: %w", ErrBackpressure)
	}

	s.logger.Debug(ctx, "selection started",
		logger.String("place_id", placeID),
		logger.Uint64("generation", ticket.Generation))
	return ticket, nil
}

// Selection renders viewer's current selection at granularity g.
func (s *Service) Selection(_ context.Context, viewer string, g timeline.Granularity) View {
	snap := s.tracker.Snapshot(viewer)

	v := s.Render(snap.Result, g)
	v.PlaceID = snap.PlaceID
	v.State = snap.State
	v.Generation = snap.Generation
	if !snap.UpdatedAt.IsZero() {
		at := snap.UpdatedAt
		v.UpdatedAt = &at
	}
	return v
}

// SearchPlaces returns places whose name contains term.
func (s *Service) SearchPlaces(ctx context.Context, term string) ([]model.Place, error) {
	return s.query.SearchPlaces(ctx, term)
}

// IsOnboarded reports whether userID finished onboarding.
func (s *Service) IsOnboarded(ctx context.Context, userID string) (bool, error) {
	return s.query.IsOnboarded(ctx, userID)
}

// Taxonomy returns the configured attribute taxonomy.
func (s *Service) Taxonomy() attributes.Taxonomy {
	return s.taxonomy
}

// DefaultGranularity is used when a request names none.
func (s *Service) DefaultGranularity() timeline.Granularity {
	return s.granularity
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"trackedViewers": s.tracker.Len(),
	}

	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	metrics.UpdateTrackedViewers(s.tracker.Len())

	return stats
}

// sweep evicts idle viewers until ctx is done.
func (s *Service) sweep(ctx context.Context) {
	defer close(s.swept)

	interval := min(max(s.idleTTL/2, minSweepInterval), maxSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.tracker.Sweep(); n > 0 {
				s.logger.Debug(ctx, "evicted idle viewers", logger.Int("count", n))
			}
			metrics.UpdateTrackedViewers(s.tracker.Len())
		}
	}
}

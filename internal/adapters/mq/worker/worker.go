// Package worker runs selection loads taken off the queue and hands their
// results back to the selection tracker.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/brandboard/internal/domain/model"
	"github.com/okian/brandboard/internal/domain/selection"
	"github.com/okian/brandboard/pkg/logger"
	"github.com/okian/brandboard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.LoadJob

// Loader runs the four lookups for a place.
type Loader interface {
	Load(ctx context.Context, placeID string) selection.Result
}

// Completer receives finished loads. It returns false when the result was
// discarded because a newer selection superseded it.
type Completer interface {
	Complete(ticket selection.Ticket, r selection.Result) bool
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes load jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	loader    Loader
	completer Completer
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, loader Loader, completer Completer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		loader:    loader,
		completer: completer,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop. It returns when ctx is cancelled, Shutdown is
// called, or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			w.process(job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one load. A panicking loader fails the selection instead of
// killing the worker.
func (w *InMemoryWorker) process(job Job) {
	ctx := job.Context()
	ticket := selection.Ticket{Viewer: job.Viewer, PlaceID: job.PlaceID, Generation: job.Generation}

	if ctx.Err() != nil {
		metrics.RecordSelectionStale()
		return
	}

	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	result := w.load(ctx, job)

	if !w.completer.Complete(ticket, result) {
		metrics.RecordSelectionStale()
		w.logger.Debug(ctx, "discarded superseded load",
			logger.String("place_id", job.PlaceID),
			logger.Uint64("generation", job.Generation))
		return
	}
	metrics.RecordSelectionOutcome(string(result.State()))
}

func (w *InMemoryWorker) load(ctx context.Context, job Job) (result selection.Result) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByType("worker_panic", "high")
			err := fmt.Errorf("load panicked: %v", r)
			w.logger.Error(ctx, "load failed", logger.String("place_id", job.PlaceID), logger.Error(err))
			result = selection.FailedResult(err)
		}
	}()
	return w.loader.Load(ctx, job.PlaceID)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, loader Loader, completer Completer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			loader,
			completer,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it. Workers still
// busy when ctx or the pool timeout expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			_ = worker.Shutdown(shutdownCtx)
		}
	}

	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}

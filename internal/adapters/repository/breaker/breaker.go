// Package breaker guards a row store with a circuit breaker so a failing
// backend is shed quickly instead of stalling every dashboard load.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/pkg/logger"
	"github.com/okian/brandboard/pkg/metrics"
)

const (
	defaultMaxRequests  = 1
	defaultInterval     = time.Minute
	defaultTimeout      = 30 * time.Second
	defaultMinRequests  = 5
	defaultFailureRatio = 0.6
)

// Store wraps another Store. Lookups that find nothing are not failures.
type Store struct {
	next         repository.Store
	cb           *gobreaker.CircuitBreaker[any]
	name         string
	settings     gobreaker.Settings
	minRequests  uint32
	failureRatio float64
	logger       logger.Logger
}

// New wraps next in a breaker called name.
func New(name string, next repository.Store, opts ...Option) *Store {
	s := &Store{
		next: next,
		name: name,
		settings: gobreaker.Settings{
			Name:        name,
			MaxRequests: defaultMaxRequests,
			Interval:    defaultInterval,
			Timeout:     defaultTimeout,
		},
		minRequests:  defaultMinRequests,
		failureRatio: defaultFailureRatio,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("breaker")
	}

	s.settings.ReadyToTrip = s.readyToTrip
	s.settings.OnStateChange = s.onStateChange
	s.settings.IsSuccessful = isSuccessful
	s.cb = gobreaker.NewCircuitBreaker[any](s.settings)

	metrics.UpdateBreakerState(name, stateToFloat(gobreaker.StateClosed))
	return s
}

// State reports the breaker's current state.
func (s *Store) State() string { return s.cb.State().String() }

func (s *Store) All(ctx context.Context, table string) ([]repository.Row, error) {
	return castResult[[]repository.Row](s.execute(ctx, func() (any, error) {
		return s.next.All(ctx, table)
	}))
}

func (s *Store) WhereEq(ctx context.Context, table, column, value string) ([]repository.Row, error) {
	return castResult[[]repository.Row](s.execute(ctx, func() (any, error) {
		return s.next.WhereEq(ctx, table, column, value)
	}))
}

func (s *Store) WhereIn(ctx context.Context, table, column string, values []string) ([]repository.Row, error) {
	if len(values) == 0 {
		return []repository.Row{}, nil
	}
	return castResult[[]repository.Row](s.execute(ctx, func() (any, error) {
		return s.next.WhereIn(ctx, table, column, values)
	}))
}

func (s *Store) Single(ctx context.Context, table, column, value string) (repository.Row, error) {
	return castResult[repository.Row](s.execute(ctx, func() (any, error) {
		return s.next.Single(ctx, table, column, value)
	}))
}

func (s *Store) Close() error { return s.next.Close() }

func (s *Store) execute(ctx context.Context, fn func() (any, error)) (any, error) {
	result, err := s.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.RecordBreakerRequest(s.name, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(s.name, "rejected")
		s.logger.Warn(ctx, "request rejected", logger.String("breaker", s.name), logger.Error(err))
		return nil, fmt.Errorf("breaker.%s: %w: %w", s.name, ErrUnavailable, err)
	case isSuccessful(err):
		metrics.RecordBreakerRequest(s.name, "success")
	default:
		metrics.RecordBreakerRequest(s.name, "failure")
	}
	return result, err
}

func (s *Store) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < s.minRequests {
		return false
	}
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return ratio >= s.failureRatio
}

func (s *Store) onStateChange(name string, from, to gobreaker.State) {
	s.logger.Info(context.Background(), "breaker state transition",
		logger.String("breaker", name),
		logger.String("from", from.String()),
		logger.String("to", to.String()))
	metrics.UpdateBreakerState(name, stateToFloat(to))
}

// isSuccessful keeps caller mistakes and cancellations out of the failure
// count; only backend faults should trip the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrMultipleRows) ||
		errors.Is(err, repository.ErrInvalidIdentifier) ||
		errors.Is(err, context.Canceled)
}

func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

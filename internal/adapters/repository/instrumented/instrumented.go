// Package instrumented records latency, errors and row counts for every
// row store call.
package instrumented

import (
	"context"
	"errors"
	"time"

	"github.com/okian/brandboard/internal/adapters/repository"
	"github.com/okian/brandboard/pkg/metrics"
)

// Store decorates another Store with metrics.
type Store struct {
	next repository.Store
}

// New wraps next.
func New(next repository.Store) *Store {
	return &Store{next: next}
}

func (s *Store) All(ctx context.Context, table string) (rows []repository.Row, err error) {
	defer observe(table, "all", time.Now(), &err, func() int { return len(rows) })
	return s.next.All(ctx, table)
}

func (s *Store) WhereEq(ctx context.Context, table, column, value string) (rows []repository.Row, err error) {
	defer observe(table, "where_eq", time.Now(), &err, func() int { return len(rows) })
	return s.next.WhereEq(ctx, table, column, value)
}

func (s *Store) WhereIn(ctx context.Context, table, column string, values []string) (rows []repository.Row, err error) {
	defer observe(table, "where_in", time.Now(), &err, func() int { return len(rows) })
	return s.next.WhereIn(ctx, table, column, values)
}

func (s *Store) Single(ctx context.Context, table, column, value string) (row repository.Row, err error) {
	defer observe(table, "single", time.Now(), &err, func() int {
		if row == nil {
			return 0
		}
		return 1
	})
	return s.next.Single(ctx, table, column, value)
}

func (s *Store) Close() error { return s.next.Close() }

func observe(table, op string, start time.Time, err *error, n func() int) {
	metrics.RecordStoreQuery(table, op, float64(time.Since(start).Milliseconds()))
	if *err != nil && !errors.Is(*err, repository.ErrNotFound) {
		metrics.RecordStoreError(table, op)
		return
	}
	metrics.RecordStoreRows(table, n())
}

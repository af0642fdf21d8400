// Package memory is an in-process row store, seeded from YAML fixtures.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/okian/brandboard/internal/adapters/repository"
)

// Store keeps tables as row slices guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]repository.Row
	closed bool
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string][]repository.Row)}
}

// LoadFixtures reads a YAML document mapping table names to lists of rows.
func LoadFixtures(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memory.LoadFixtures: %w", err)
	}
	return ParseFixtures(raw)
}

// ParseFixtures is LoadFixtures on an in-memory document.
func ParseFixtures(raw []byte) (*Store, error) {
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("memory.ParseFixtures: %w", err)
	}
	s := New()
	for table, rows := range doc {
		if err := repository.CheckIdent(table); err != nil {
			return nil, fmt.Errorf("memory.ParseFixtures: %w", err)
		}
		for _, r := range rows {
			s.Insert(table, repository.Row(r))
		}
	}
	return s, nil
}

// Insert appends rows to table, creating it when missing.
func (s *Store) Insert(table string, rows ...repository.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[table]; !ok {
		s.tables[table] = make([]repository.Row, 0, len(rows))
	}
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], clone(r))
	}
}

func (s *Store) All(ctx context.Context, table string) ([]repository.Row, error) {
	return s.filter(ctx, table, func(repository.Row) bool { return true })
}

func (s *Store) WhereEq(ctx context.Context, table, column, value string) ([]repository.Row, error) {
	if err := repository.CheckIdent(column); err != nil {
		return nil, err
	}
	return s.filter(ctx, table, func(r repository.Row) bool {
		v, ok := r[column]
		return ok && text(v) == value
	})
}

func (s *Store) WhereIn(ctx context.Context, table, column string, values []string) ([]repository.Row, error) {
	if err := repository.CheckIdent(column); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []repository.Row{}, nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return s.filter(ctx, table, func(r repository.Row) bool {
		v, ok := r[column]
		if !ok {
			return false
		}
		_, hit := set[text(v)]
		return hit
	})
}

func (s *Store) Single(ctx context.Context, table, column, value string) (repository.Row, error) {
	rows, err := s.WhereEq(ctx, table, column, value)
	if err != nil {
		return nil, err
	}
	return repository.One(rows)
}

// Close marks the store closed; later reads fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) filter(ctx context.Context, table string, keep func(repository.Row) bool) ([]repository.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := repository.CheckIdent(table); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoTable, table)
	}
	out := make([]repository.Row, 0)
	for _, r := range rows {
		if keep(r) {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func clone(r repository.Row) repository.Row {
	c := make(repository.Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func text(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

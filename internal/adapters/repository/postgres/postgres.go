// Package postgres implements the row store on a pgx connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/brandboard/internal/adapters/repository"
)

// Store reads rows through a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

// Option customises the pool config before connecting.
type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// Open parses dsn, connects the pool and pings it.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	const op = "postgres.Open"

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}
	return &Store{pool: pool}, nil
}

// Pool exposes the pool for seeding and migrations.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) All(ctx context.Context, table string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table); err != nil {
		return nil, err
	}
	return s.query(ctx, "postgres.All", fmt.Sprintf(`SELECT * FROM %q`, table))
}

func (s *Store) WhereEq(ctx context.Context, table, column, value string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT * FROM %q WHERE %q::text = $1`, table, column)
	return s.query(ctx, "postgres.WhereEq", q, value)
}

func (s *Store) WhereIn(ctx context.Context, table, column string, values []string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []repository.Row{}, nil
	}
	q := fmt.Sprintf(`SELECT * FROM %q WHERE %q::text = ANY($1)`, table, column)
	return s.query(ctx, "postgres.WhereIn", q, values)
}

func (s *Store) Single(ctx context.Context, table, column, value string) (repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT * FROM %q WHERE %q::text = $1 LIMIT 2`, table, column)
	rows, err := s.query(ctx, "postgres.Single", q, value)
	if err != nil {
		return nil, err
	}
	return repository.One(rows)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) query(ctx context.Context, op, q string, args ...any) ([]repository.Row, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]repository.Row, len(maps))
	for i, m := range maps {
		for k, v := range m {
			m[k] = normalize(v)
		}
		out[i] = repository.Row(m)
	}
	return out, nil
}

// normalize turns pgx-specific values into plain Go ones.
func normalize(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return v
	}
}

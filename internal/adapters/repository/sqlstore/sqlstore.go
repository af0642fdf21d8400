// Package sqlstore implements the row store over database/sql for SQLite
// (modernc.org/sqlite) and MySQL (go-sql-driver/mysql).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/okian/brandboard/internal/adapters/repository"
)

// Store reads rows through a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Open connects to dsn with the named driver (sqlite or mysql).
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	const op = "sqlstore.Open"

	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if dialect.Driver == SQLite.Driver && strings.Contains(dsn, ":memory:") {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(o.maxOpenConns)
	}

	if o.ping {
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: ping: %w", op, err)
		}
	}
	for _, stmt := range o.schemas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: schema: %w", op, err)
		}
	}
	return New(db, dialect), nil
}

// DB exposes the underlying handle for seeding.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) All(ctx context.Context, table string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table); err != nil {
		return nil, err
	}
	return s.query(ctx, "sqlstore.All", s.dialect.selectAll(table))
}

func (s *Store) WhereEq(ctx context.Context, table, column, value string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	return s.query(ctx, "sqlstore.WhereEq", s.dialect.selectEq(table, column, 0), value)
}

func (s *Store) WhereIn(ctx context.Context, table, column string, values []string) ([]repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return []repository.Row{}, nil
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return s.query(ctx, "sqlstore.WhereIn", s.dialect.selectIn(table, column, len(values)), args...)
}

func (s *Store) Single(ctx context.Context, table, column, value string) (repository.Row, error) {
	if err := repository.CheckIdent(table, column); err != nil {
		return nil, err
	}
	// Two rows are enough to tell one from many.
	rows, err := s.query(ctx, "sqlstore.Single", s.dialect.selectEq(table, column, 2), value)
	if err != nil {
		return nil, err
	}
	return repository.One(rows)
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) query(ctx context.Context, op, q string, args ...any) ([]repository.Row, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: columns: %w", op, err)
	}

	out := make([]repository.Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		row := make(repository.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

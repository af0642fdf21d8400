// Package repository defines the row store boundary the query layer reads
// through, plus the errors every backend reports.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/brandboard/internal/validation"
)

// Row is one record keyed by column name.
type Row map[string]any

// Store offers the four filtered reads the dashboard needs. Values are
// compared as text so string ids match integer or uuid columns alike.
type Store interface {
	// All returns every row of table.
	All(ctx context.Context, table string) ([]Row, error)

	// WhereEq returns rows of table where column equals value.
	WhereEq(ctx context.Context, table, column, value string) ([]Row, error)

	// WhereIn returns rows of table where column is one of values.
	// An empty values slice returns no rows without querying.
	WhereIn(ctx context.Context, table, column string, values []string) ([]Row, error)

	// Single returns the one row of table where column equals value.
	// It fails with ErrNotFound or ErrMultipleRows otherwise.
	Single(ctx context.Context, table, column, value string) (Row, error)

	// Close releases the backend's resources.
	Close() error
}

// CheckIdent rejects table or column names that are unsafe to interpolate.
func CheckIdent(names ...string) error {
	for _, n := range names {
		if !validation.IsIdentifier(n) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, n)
		}
	}
	return nil
}

// One narrows rows to exactly one, the way Single must.
func One(rows []Row) (Row, error) {
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return rows[0], nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrMultipleRows, len(rows))
	}
}

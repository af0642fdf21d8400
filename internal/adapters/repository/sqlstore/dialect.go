package sqlstore

import (
	"fmt"
	"strings"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	quote    func(string) string
	textType string
}

var (
	SQLite = Dialect{Driver: "sqlite", quote: doubleQuote, textType: "TEXT"}
	MySQL  = Dialect{Driver: "mysql", quote: backtick, textType: "CHAR"}
)

// DialectFor maps a configured driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

func (d Dialect) selectAll(table string) string {
	return "SELECT * FROM " + d.quote(table)
}

func (d Dialect) selectEq(table, column string, limit int) string {
	q := fmt.Sprintf("%s WHERE CAST(%s AS %s) = ?", d.selectAll(table), d.quote(column), d.textType)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	return q
}

func (d Dialect) selectIn(table, column string, n int) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return fmt.Sprintf("%s WHERE CAST(%s AS %s) IN (%s)", d.selectAll(table), d.quote(column), d.textType, marks)
}

func doubleQuote(s string) string { return `"` + s + `"` }
func backtick(s string) string    { return "`" + s + "`" }

// Package store holds the SQL access functions for products and sales.
package store

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/shopspring/decimal"
)

// SoldLine is the part of a sale line the sales report needs. Amount is the
// line total (or the subtotal on the legacy schema).
type SoldLine struct {
	ProductID   int64
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Amount      decimal.Decimal
}

func completedLinesQuery(from, to time.Time) squirrel.SelectBuilder {
	return psql.
		Select("si.product_id", "si.product_name", "si.unit_price", "si.quantity", "si.total").
		From("sale_items si").
		Join("sales s ON s.id = si.sale_id").
		Where(squirrel.Eq{"s.status": models.SaleStatusCompleted}).
		Where(squirrel.GtOrEq{"s.sold_at": from}).
		Where(squirrel.Lt{"s.sold_at": to}).
		OrderBy("s.sold_at", "si.created_at")
}

// ListCompletedLines returns the lines of completed sales with sold_at in [from, to).
func ListCompletedLines(ctx context.Context, db database.DBTX, from, to time.Time) ([]SoldLine, error) {
	query, args, err := completedLinesQuery(from, to).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build completed lines: %w", err)
	}
	return querySoldLines(ctx, db, query, args...)
}

// ListLegacyLines reads the flat sale_items relation of a schema without the
// sales header table. It cannot filter by status or date.
func ListLegacyLines(ctx context.Context, db database.DBTX) ([]SoldLine, error) {
	return querySoldLines(ctx, db,
		`SELECT product_id, product_name, unit_price, quantity, subtotal
		 FROM sale_items`)
}

func querySoldLines(ctx context.Context, db database.DBTX, query string, args ...any) ([]SoldLine, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sold lines: %w", err)
	}
	defer rows.Close()

	var lines []SoldLine
	for rows.Next() {
		var line SoldLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.UnitPrice, &line.Quantity, &line.Amount); err != nil {
			return nil, fmt.Errorf("scan sold line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// SalesRelationExists probes for the sales header table. A missing table is
// reported as false; any other failure is returned.
func SalesRelationExists(ctx context.Context, db database.DBTX) (bool, error) {
	return relationExists(ctx, db, "sales")
}

// relationExists only accepts the fixed table names used by this package.
func relationExists(ctx context.Context, db database.DBTX, table string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1").Scan(&one)
	switch {
	case err == nil, errors.Is(err, sql.ErrNoRows):
		return true, nil
	case database.IsUndefinedTable(err):
		return false, nil
	default:
		return false, fmt.Errorf("probe %s: %w", table, err)
	}
}

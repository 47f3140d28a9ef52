package store

import (
	"context"
	"fmt"

	"github.com/safar/cafe-pos/internal/database"
)

type Diagnostics struct {
	SalesExists    bool  `json:"sales_exists"`
	SalesCount     int64 `json:"sales_count"`
	ItemsExists    bool  `json:"items_exists"`
	ItemsCount     int64 `json:"items_count"`
	ProductsTotal  int64 `json:"products_total"`
	ProductsActive int64 `json:"products_active"`
	JoinWorks      bool  `json:"join_works"`
}

// Diagnose inspects which sales relations exist and how many rows they hold.
func Diagnose(ctx context.Context, db database.DBTX) (*Diagnostics, error) {
	d := &Diagnostics{}
	var err error

	if d.SalesExists, d.SalesCount, err = countIfExists(ctx, db, "sales"); err != nil {
		return nil, err
	}
	if d.ItemsExists, d.ItemsCount, err = countIfExists(ctx, db, "sale_items"); err != nil {
		return nil, err
	}

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM products`,
	).Scan(&d.ProductsTotal, &d.ProductsActive)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	if d.SalesExists && d.ItemsExists {
		rows, err := db.QueryContext(ctx,
			`SELECT si.product_id, s.sold_at
			 FROM sale_items si
			 JOIN sales s ON s.id = si.sale_id
			 LIMIT 1`)
		if err == nil {
			rows.Close()
			d.JoinWorks = true
		}
	}

	return d, nil
}

func countIfExists(ctx context.Context, db database.DBTX, table string) (bool, int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	if err != nil {
		if database.IsUndefinedTable(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("count %s: %w", table, err)
	}
	return true, count, nil
}

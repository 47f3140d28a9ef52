package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/shopspring/decimal"
)

var saleColumns = []string{
	"id", "sold_at", "total", "payment_method", "total_items", "discount", "subtotal",
	"salesperson", "notes", "status", "created_at", "updated_at",
}

var saleItemColumns = []string{
	"id", "sale_id", "product_id", "product_name", "unit_price", "quantity",
	"subtotal", "item_discount", "total", "created_at",
}

func scanSale(row rowScanner, sale *models.Sale) error {
	return row.Scan(
		&sale.ID,
		&sale.SoldAt,
		&sale.Total,
		&sale.PaymentMethod,
		&sale.TotalItems,
		&sale.Discount,
		&sale.Subtotal,
		&sale.Salesperson,
		&sale.Notes,
		&sale.Status,
		&sale.CreatedAt,
		&sale.UpdatedAt,
	)
}

func scanSaleItem(row rowScanner, item *models.SaleItem) error {
	return row.Scan(
		&item.ID,
		&item.SaleID,
		&item.ProductID,
		&item.ProductName,
		&item.UnitPrice,
		&item.Quantity,
		&item.Subtotal,
		&item.ItemDiscount,
		&item.Total,
		&item.CreatedAt,
	)
}

// InsertSale writes the sale header. A nil ID is replaced by a new UUID; the
// database fills the timestamps.
func InsertSale(ctx context.Context, db database.DBTX, sale *models.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}

	query, args, err := psql.
		Insert("sales").
		Columns("id", "sold_at", "total", "payment_method", "total_items", "discount", "subtotal",
			"salesperson", "notes", "status", "created_at", "updated_at").
		Values(sale.ID, squirrel.Expr("NOW()"), sale.Total, sale.PaymentMethod, sale.TotalItems,
			sale.Discount, sale.Subtotal, sale.Salesperson, sale.Notes, sale.Status,
			squirrel.Expr("NOW()"), squirrel.Expr("NOW()")).
		Suffix("RETURNING sold_at, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert sale: %w", err)
	}

	err = db.QueryRowContext(ctx, query, args...).Scan(&sale.SoldAt, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create sale: %w", err)
	}

	return nil
}

func insertSaleItemsQuery(items []models.SaleItem) squirrel.InsertBuilder {
	q := psql.
		Insert("sale_items").
		Columns("id", "sale_id", "product_id", "product_name", "unit_price", "quantity",
			"subtotal", "item_discount", "total", "created_at")
	for _, item := range items {
		q = q.Values(item.ID, item.SaleID, item.ProductID, item.ProductName, item.UnitPrice,
			item.Quantity, item.Subtotal, item.ItemDiscount, item.Total, squirrel.Expr("NOW()"))
	}
	return q
}

// InsertSaleItems writes all lines in a single statement, so either every line
// is stored or none is.
func InsertSaleItems(ctx context.Context, db database.DBTX, items []models.SaleItem) error {
	if len(items) == 0 {
		return nil
	}

	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}

	query, args, err := insertSaleItemsQuery(items).ToSql()
	if err != nil {
		return fmt.Errorf("build insert sale items: %w", err)
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create sale items: %w", err)
	}

	return nil
}

func GetSale(ctx context.Context, db database.DBTX, id uuid.UUID) (*models.Sale, error) {
	return getSale(ctx, db, id, "")
}

// GetSaleForUpdate locks the sale row until the surrounding transaction ends.
func GetSaleForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Sale, error) {
	return getSale(ctx, tx, id, "FOR UPDATE")
}

func getSale(ctx context.Context, db database.DBTX, id uuid.UUID, suffix string) (*models.Sale, error) {
	q := psql.
		Select(saleColumns...).
		From("sales").
		Where(squirrel.Eq{"id": id})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get sale: %w", err)
	}

	sale := &models.Sale{}
	if err := scanSale(db.QueryRowContext(ctx, query, args...), sale); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSaleNotFound
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	return sale, nil
}

func GetSaleItems(ctx context.Context, db database.DBTX, saleID uuid.UUID) ([]models.SaleItem, error) {
	query, args, err := psql.
		Select(saleItemColumns...).
		From("sale_items").
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("created_at", "product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get sale items: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	defer rows.Close()

	items := []models.SaleItem{}
	for rows.Next() {
		var item models.SaleItem
		if err := scanSaleItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func SetSaleStatus(ctx context.Context, db database.DBTX, id uuid.UUID, status models.SaleStatus) error {
	result, err := db.ExecContext(ctx,
		`UPDATE sales
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("set sale status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrSaleNotFound
	}

	return nil
}

func listSalesQuery(status models.SaleStatus, cursor *SaleCursor, limit int) squirrel.SelectBuilder {
	q := psql.
		Select(saleColumns...).
		From("sales").
		Where(squirrel.Eq{"status": status})
	if cursor != nil {
		q = q.Where(squirrel.Expr("(sold_at, id) < (?, ?)", cursor.SoldAt, cursor.ID))
	}
	return q.
		OrderBy("sold_at DESC", "id DESC").
		Limit(uint64(limit + 1))
}

// ListSalesCursor pages through sales with the given status, newest first.
func ListSalesCursor(ctx context.Context, db database.DBTX, status models.SaleStatus, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query, args, err := listSalesQuery(status, cursorData, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sales: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var sale models.Sale
		if err := scanSale(rows, &sale); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(sales) > limit
	if hasMore {
		sales = sales[:limit]
	}

	var nextCursor string
	if hasMore && len(sales) > 0 {
		last := sales[len(sales)-1]
		nextCursor = EncodeCursor(SaleCursor{
			SoldAt: last.SoldAt,
			ID:     last.ID,
		})
	}

	return &CursorPage{
		Items:      sales,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

type SalesStats struct {
	SaleCount int64           `json:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue"`
	UnitsSold int64           `json:"units_sold"`
}

// GetSalesStats totals completed sales with sold_at in [from, to). Zero times
// leave that side of the range open.
func GetSalesStats(ctx context.Context, db database.DBTX, from, to time.Time) (*SalesStats, error) {
	q := psql.
		Select("COUNT(*)", "COALESCE(SUM(total), 0)", "COALESCE(SUM(total_items), 0)").
		From("sales").
		Where(squirrel.Eq{"status": models.SaleStatusCompleted})
	if !from.IsZero() {
		q = q.Where(squirrel.GtOrEq{"sold_at": from})
	}
	if !to.IsZero() {
		q = q.Where(squirrel.Lt{"sold_at": to})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sales stats: %w", err)
	}

	stats := &SalesStats{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(&stats.SaleCount, &stats.Revenue, &stats.UnitsSold); err != nil {
		return nil, fmt.Errorf("sales stats: %w", err)
	}

	return stats, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/shopspring/decimal"
)

var productColumns = []string{
	"id", "name", "price", "quantity", "image_url", "is_active", "created_at", "updated_at",
}

func scanProduct(row rowScanner, product *models.Product) error {
	return row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Quantity,
		&product.ImageURL,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
}

// NewProduct holds the caller-settable fields of a product insert.
type NewProduct struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	ImageURL string
}

// ProductUpdate holds a partial update; nil fields are left unchanged.
type ProductUpdate struct {
	Name     *string
	Price    *decimal.Decimal
	Quantity *int
	ImageURL *string
}

func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Price == nil && u.Quantity == nil && u.ImageURL == nil
}

func CreateProduct(ctx context.Context, db database.DBTX, in NewProduct) (*models.Product, error) {
	query, args, err := psql.
		Insert("products").
		Columns("name", "price", "quantity", "image_url", "is_active", "created_at", "updated_at").
		Values(in.Name, in.Price, in.Quantity, in.ImageURL, true, squirrel.Expr("NOW()"), squirrel.Expr("NOW()")).
		Suffix("RETURNING " + joinColumns(productColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert product: %w", err)
	}

	product := &models.Product{}
	if err := scanProduct(db.QueryRowContext(ctx, query, args...), product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

// GetProduct returns the product regardless of its active flag.
func GetProduct(ctx context.Context, db database.DBTX, id int64) (*models.Product, error) {
	query, args, err := psql.
		Select(productColumns...).
		From("products").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get product: %w", err)
	}

	product := &models.Product{}
	if err := scanProduct(db.QueryRowContext(ctx, query, args...), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func listProductsQuery(active bool) squirrel.SelectBuilder {
	return psql.
		Select(productColumns...).
		From("products").
		Where(squirrel.Eq{"is_active": active}).
		OrderBy("id")
}

// ListProducts returns every product whose active flag equals active.
func ListProducts(ctx context.Context, db database.DBTX, active bool) ([]models.Product, error) {
	query, args, err := listProductsQuery(active).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list products: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

func updateProductQuery(id int64, upd ProductUpdate) squirrel.UpdateBuilder {
	q := psql.Update("products")
	if upd.Name != nil {
		q = q.Set("name", *upd.Name)
	}
	if upd.Price != nil {
		q = q.Set("price", *upd.Price)
	}
	if upd.Quantity != nil {
		q = q.Set("quantity", *upd.Quantity)
	}
	if upd.ImageURL != nil {
		q = q.Set("image_url", *upd.ImageURL)
	}
	return q.
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns(productColumns))
}

// UpdateProduct merges the given fields into the product. Last write wins.
func UpdateProduct(ctx context.Context, db database.DBTX, id int64, upd ProductUpdate) (*models.Product, error) {
	if upd.IsEmpty() {
		return GetProduct(ctx, db, id)
	}

	query, args, err := updateProductQuery(id, upd).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update product: %w", err)
	}

	product := &models.Product{}
	if err := scanProduct(db.QueryRowContext(ctx, query, args...), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// SetProductActive flips the soft-delete flag. Setting the current value again
// is not an error.
func SetProductActive(ctx context.Context, db database.DBTX, id int64, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET is_active = $1,
		     updated_at = CASE WHEN is_active = $1 THEN updated_at ELSE NOW() END
		 WHERE id = $2`,
		active, id)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

// AdjustStock applies a signed delta to the product quantity. The update is
// refused when the result would go below zero.
func AdjustStock(ctx context.Context, db database.DBTX, id int64, delta int) (*models.Product, error) {
	product := &models.Product{}

	err := scanProduct(db.QueryRowContext(ctx,
		`UPDATE products
		 SET quantity = quantity + $1,
		     updated_at = NOW()
		 WHERE id = $2
		   AND quantity + $1 >= 0
		 RETURNING `+joinColumns(productColumns),
		delta, id), product)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	if _, err := GetProduct(ctx, db, id); err != nil {
		return nil, err
	}
	return nil, database.ErrInsufficientStock
}

// DecrementStock atomically removes quantity units through decrement_stock()
// and returns the remaining stock.
func DecrementStock(ctx context.Context, db database.DBTX, productID int64, quantity int) (int, error) {
	var remaining sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT decrement_stock($1, $2)`,
		productID, quantity).Scan(&remaining)
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}

	if !remaining.Valid {
		return 0, database.ErrInsufficientStock
	}

	return int(remaining.Int64), nil
}

type InventorySummary struct {
	ActiveProducts int             `json:"active_products"`
	LowStock       int             `json:"low_stock"`
	StockValue     decimal.Decimal `json:"stock_value"`
}

// GetInventorySummary counts active products, those at or below threshold,
// and the value of the stock on hand.
func GetInventorySummary(ctx context.Context, db database.DBTX, threshold int) (*InventorySummary, error) {
	summary := &InventorySummary{}

	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE quantity <= $1),
		        COALESCE(SUM(price * quantity), 0)
		 FROM products
		 WHERE is_active = TRUE`,
		threshold).Scan(&summary.ActiveProducts, &summary.LowStock, &summary.StockValue)
	if err != nil {
		return nil, fmt.Errorf("inventory summary: %w", err)
	}

	return summary, nil
}

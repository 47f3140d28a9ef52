package sales

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/store"
)

// ProductReader is the read side needed for stock validation.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// Repository is the storage used by the checkout workflow.
type Repository interface {
	ProductReader
	InsertSale(ctx context.Context, sale *models.Sale) error
	InsertSaleItems(ctx context.Context, items []models.SaleItem) error
	DecrementStock(ctx context.Context, productID int64, quantity int) (int, error)
	SetSaleStatus(ctx context.Context, id uuid.UUID, status models.SaleStatus) error
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	GetSaleItems(ctx context.Context, saleID uuid.UUID) ([]models.SaleItem, error)
	ListSales(ctx context.Context, status models.SaleStatus, cursor string, limit int) (*store.CursorPage, error)
	// UpdateStatus locks the sale, asks decide for the next status and stores it.
	UpdateStatus(ctx context.Context, id uuid.UUID, decide func(current *models.Sale) (models.SaleStatus, error)) error
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository returns a Repository backed by the store package. Every call
// is its own statement; only UpdateStatus runs in a transaction.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return store.GetProduct(ctx, r.db, id)
}

func (r *sqlRepository) InsertSale(ctx context.Context, sale *models.Sale) error {
	return store.InsertSale(ctx, r.db, sale)
}

func (r *sqlRepository) InsertSaleItems(ctx context.Context, items []models.SaleItem) error {
	return store.InsertSaleItems(ctx, r.db, items)
}

func (r *sqlRepository) DecrementStock(ctx context.Context, productID int64, quantity int) (int, error) {
	return store.DecrementStock(ctx, r.db, productID, quantity)
}

func (r *sqlRepository) SetSaleStatus(ctx context.Context, id uuid.UUID, status models.SaleStatus) error {
	return store.SetSaleStatus(ctx, r.db, id, status)
}

func (r *sqlRepository) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	return store.GetSale(ctx, r.db, id)
}

func (r *sqlRepository) GetSaleItems(ctx context.Context, saleID uuid.UUID) ([]models.SaleItem, error) {
	return store.GetSaleItems(ctx, r.db, saleID)
}

func (r *sqlRepository) ListSales(ctx context.Context, status models.SaleStatus, cursor string, limit int) (*store.CursorPage, error) {
	return store.ListSalesCursor(ctx, r.db, status, cursor, limit)
}

func (r *sqlRepository) UpdateStatus(ctx context.Context, id uuid.UUID, decide func(current *models.Sale) (models.SaleStatus, error)) error {
	return database.WithTransaction(ctx, r.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		sale, err := store.GetSaleForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		next, err := decide(sale)
		if err != nil {
			return err
		}

		return store.SetSaleStatus(ctx, tx, id, next)
	})
}

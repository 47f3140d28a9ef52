package catalog

import (
	"context"
	"database/sql"

	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/store"
)

type sqlRepository struct {
	db *sql.DB
}

// NewRepository returns a Repository backed by the store package.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) ListProducts(ctx context.Context, active bool) ([]models.Product, error) {
	return store.ListProducts(ctx, r.db, active)
}

func (r *sqlRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return store.GetProduct(ctx, r.db, id)
}

func (r *sqlRepository) CreateProduct(ctx context.Context, in store.NewProduct) (*models.Product, error) {
	return store.CreateProduct(ctx, r.db, in)
}

func (r *sqlRepository) UpdateProduct(ctx context.Context, id int64, upd store.ProductUpdate) (*models.Product, error) {
	return store.UpdateProduct(ctx, r.db, id, upd)
}

func (r *sqlRepository) SetProductActive(ctx context.Context, id int64, active bool) error {
	return store.SetProductActive(ctx, r.db, id, active)
}

func (r *sqlRepository) AdjustStock(ctx context.Context, id int64, delta int) (*models.Product, error) {
	return store.AdjustStock(ctx, r.db, id, delta)
}

func (r *sqlRepository) GetInventorySummary(ctx context.Context, threshold int) (*store.InventorySummary, error) {
	return store.GetInventorySummary(ctx, r.db, threshold)
}

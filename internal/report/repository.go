package report

import (
	"context"
	"database/sql"
	"time"

	"github.com/safar/cafe-pos/internal/store"
)

type sqlRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) SalesRelationExists(ctx context.Context) (bool, error) {
	return store.SalesRelationExists(ctx, r.db)
}

func (r *sqlRepository) ListCompletedLines(ctx context.Context, from, to time.Time) ([]store.SoldLine, error) {
	return store.ListCompletedLines(ctx, r.db, from, to)
}

func (r *sqlRepository) ListLegacyLines(ctx context.Context) ([]store.SoldLine, error) {
	return store.ListLegacyLines(ctx, r.db)
}

func (r *sqlRepository) GetSalesStats(ctx context.Context, from, to time.Time) (*store.SalesStats, error) {
	return store.GetSalesStats(ctx, r.db, from, to)
}

func (r *sqlRepository) Diagnose(ctx context.Context) (*store.Diagnostics, error) {
	return store.Diagnose(ctx, r.db)
}

// Package catalog manages products: listing, creation, partial updates,
// soft delete and restore, and stock adjustments.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/safar/cafe-pos/internal/apperror"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/store"
)

// Repository is the product storage used by the service.
type Repository interface {
	ListProducts(ctx context.Context, active bool) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, in store.NewProduct) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, upd store.ProductUpdate) (*models.Product, error)
	SetProductActive(ctx context.Context, id int64, active bool) error
	AdjustStock(ctx context.Context, id int64, delta int) (*models.Product, error)
	GetInventorySummary(ctx context.Context, threshold int) (*store.InventorySummary, error)
}

// ProductInput is the client payload for create and update. ID and IsActive
// are only decoded so that they can be rejected.
type ProductInput struct {
	ID       *int64           `json:"id,omitempty"`
	IsActive *bool            `json:"is_active,omitempty"`
	Name     *string          `json:"product"`
	Price    *decimal.Decimal `json:"price"`
	Quantity *int             `json:"quantity"`
	ImageURL *string          `json:"image_url"`
}

type Service struct {
	repo              Repository
	log               *zap.Logger
	lowStockThreshold int
}

func NewService(repo Repository, log *zap.Logger, lowStockThreshold int) *Service {
	return &Service{
		repo:              repo,
		log:               log.Named("catalog"),
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, s.storeError("list active products", err)
	}
	return products, nil
}

func (s *Service) ListDeleted(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return nil, s.storeError("list deleted products", err)
	}
	return products, nil
}

// GetByID returns the product whether or not it is active.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, s.mapError("get product", id, err)
	}
	return product, nil
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := rejectManagedFields(in); err != nil {
		return nil, err
	}
	if in.Name == nil || in.Price == nil {
		return nil, apperror.NewValidation("product and price are required")
	}
	if err := validateFields(in); err != nil {
		return nil, err
	}

	np := store.NewProduct{
		Name:  strings.TrimSpace(*in.Name),
		Price: *in.Price,
	}
	if in.Quantity != nil {
		np.Quantity = *in.Quantity
	}
	if in.ImageURL != nil {
		np.ImageURL = *in.ImageURL
	}

	product, err := s.repo.CreateProduct(ctx, np)
	if err != nil {
		return nil, s.storeError("create product", err)
	}

	s.log.Info("product created", zap.Int64("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// Update merges the given fields into the product. Concurrent updates are
// last-write-wins.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	if err := rejectManagedFields(in); err != nil {
		return nil, err
	}
	if err := validateFields(in); err != nil {
		return nil, err
	}

	upd := store.ProductUpdate{
		Price:    in.Price,
		Quantity: in.Quantity,
		ImageURL: in.ImageURL,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		upd.Name = &name
	}

	product, err := s.repo.UpdateProduct(ctx, id, upd)
	if err != nil {
		return nil, s.mapError("update product", id, err)
	}
	return product, nil
}

// SoftDelete hides the product from the catalog and from checkout. Deleting
// an already inactive product succeeds.
func (s *Service) SoftDelete(ctx context.Context, id int64) error {
	if err := s.repo.SetProductActive(ctx, id, false); err != nil {
		return s.mapError("soft delete product", id, err)
	}
	s.log.Info("product deactivated", zap.Int64("product_id", id))
	return nil
}

func (s *Service) Restore(ctx context.Context, id int64) error {
	if err := s.repo.SetProductActive(ctx, id, true); err != nil {
		return s.mapError("restore product", id, err)
	}
	s.log.Info("product restored", zap.Int64("product_id", id))
	return nil
}

// AdjustQuantity adds delta (which may be negative) to the stock on hand.
func (s *Service) AdjustQuantity(ctx context.Context, id int64, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, apperror.NewValidation("delta must not be zero")
	}
	if delta > models.MaxQuantity || delta < -models.MaxQuantity {
		return nil, apperror.NewValidation("delta out of range").WithDetail("delta", delta)
	}

	product, err := s.repo.AdjustStock(ctx, id, delta)
	if errors.Is(err, database.ErrInsufficientStock) {
		return nil, apperror.NewBusinessRule("stock cannot go below zero").
			WithDetail("product_id", id).
			WithDetail("delta", delta)
	}
	if err != nil {
		return nil, s.mapError("adjust stock", id, err)
	}

	s.log.Info("stock adjusted",
		zap.Int64("product_id", id),
		zap.Int("delta", delta),
		zap.Int("quantity", product.Quantity),
	)
	return product, nil
}

func (s *Service) Summary(ctx context.Context) (*store.InventorySummary, error) {
	summary, err := s.repo.GetInventorySummary(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, s.storeError("inventory summary", err)
	}
	return summary, nil
}

func (s *Service) mapError(op string, id int64, err error) error {
	if errors.Is(err, database.ErrProductNotFound) {
		return apperror.NewNotFound("product", id)
	}
	return s.storeError(op, err)
}

// storeError converts a store failure. Constraint failures become client
// errors, everything else is internal.
func (s *Service) storeError(op string, err error) error {
	if database.IsConstraintViolation(err) {
		s.log.Warn(op+" rejected by constraint", zap.Error(err))
		if database.IsCheckViolation(err) {
			return apperror.NewValidation("product value out of range").WithCause(err)
		}
		return apperror.NewBusinessRule("product conflicts with stored data").WithCause(err)
	}
	s.log.Error(op+" failed", zap.Error(err))
	return apperror.NewInternal(err)
}

func rejectManagedFields(in ProductInput) error {
	if in.ID != nil {
		return apperror.NewValidation("id is assigned by the server")
	}
	if in.IsActive != nil {
		return apperror.NewValidation("is_active is changed through delete and restore")
	}
	return nil
}

func validateFields(in ProductInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return apperror.NewValidation("product name must not be empty")
	}
	if in.Price != nil && !in.Price.IsPositive() {
		return apperror.NewValidation("price must be greater than zero")
	}
	if in.Price != nil && !models.IsMoney(*in.Price) {
		return apperror.NewValidation("price must have at most two decimal places")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative")
	}
	if in.Quantity != nil && *in.Quantity > models.MaxQuantity {
		return apperror.NewValidation("quantity out of range")
	}
	return nil
}

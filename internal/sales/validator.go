package sales

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/safar/cafe-pos/internal/apperror"
	"github.com/safar/cafe-pos/internal/cart"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
)

// StockValidator checks requested quantities against the stock of active
// products. It never writes and takes no locks, so a positive answer can be
// stale by the time stock is decremented.
type StockValidator struct {
	products ProductReader
	log      *zap.Logger
}

func NewStockValidator(products ProductReader, log *zap.Logger) *StockValidator {
	return &StockValidator{products: products, log: log.Named("stock")}
}

// Check returns nil when every line can be served, otherwise the first
// failing line as an *apperror.AppError.
func (v *StockValidator) Check(ctx context.Context, lines []models.CartLine) error {
	c, err := normalizeLines(lines)
	if err != nil {
		return err
	}
	_, err = v.snapshot(ctx, c.Lines())
	return err
}

// Available is Check reduced to a yes/no answer.
func (v *StockValidator) Available(ctx context.Context, lines []models.CartLine) bool {
	return v.Check(ctx, lines) == nil
}

// snapshot reads each product once and verifies it. Lines must already be
// normalized. The returned products are in line order.
func (v *StockValidator) snapshot(ctx context.Context, lines []models.CartLine) ([]*models.Product, error) {
	products := make([]*models.Product, 0, len(lines))
	for _, line := range lines {
		product, err := v.checkLine(ctx, line)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (v *StockValidator) checkLine(ctx context.Context, line models.CartLine) (*models.Product, error) {
	product, err := v.products.GetProduct(ctx, line.ProductID)
	if errors.Is(err, database.ErrProductNotFound) {
		v.log.Warn("product not found", zap.Int64("product_id", line.ProductID))
		return nil, apperror.NewNotFound("product", line.ProductID)
	}
	if err != nil {
		v.log.Error("read product failed", zap.Int64("product_id", line.ProductID), zap.Error(err))
		return nil, apperror.NewInternal(err)
	}

	if !product.IsActive {
		v.log.Warn("product inactive", zap.Int64("product_id", line.ProductID))
		return nil, apperror.NewBusinessRule("product is not available for sale").
			WithDetail("product_id", line.ProductID).
			WithCause(database.ErrProductInactive)
	}

	if product.Quantity < line.Quantity {
		v.log.Warn("insufficient stock",
			zap.Int64("product_id", line.ProductID),
			zap.Int("requested", line.Quantity),
			zap.Int("available", product.Quantity),
		)
		return nil, apperror.NewInsufficientStock(line.ProductID, line.Quantity, product.Quantity).
			WithCause(database.ErrInsufficientStock)
	}

	return product, nil
}

// normalizeLines merges repeated products and rejects malformed lines.
func normalizeLines(lines []models.CartLine) (*cart.Cart, error) {
	c, err := cart.FromLines(lines)
	if err != nil {
		return nil, apperror.NewValidation(err.Error()).WithCause(err)
	}
	return c, nil
}

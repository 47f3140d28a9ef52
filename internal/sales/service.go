// Package sales implements checkout, sale lookup and sale status changes.
//
// Checkout writes the header, then the lines, then decrements stock, each as
// its own statement. A failure after the header is written leaves the sale
// in status incomplete instead of rolling anything back.
package sales

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/safar/cafe-pos/internal/apperror"
	"github.com/safar/cafe-pos/internal/cart"
	"github.com/safar/cafe-pos/internal/database"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type CheckoutRequest struct {
	Items         []models.CartLine    `json:"items"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Discount      decimal.Decimal      `json:"discount"`
	Salesperson   string               `json:"salesperson"`
	Notes         string               `json:"notes"`
}

type Service struct {
	repo      Repository
	validator *StockValidator
	log       *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: NewStockValidator(repo, log),
		log:       log.Named("sales"),
	}
}

// Validator exposes the stock check used before checkout.
func (s *Service) Validator() *StockValidator {
	return s.validator
}

// Checkout validates the cart, records the sale and decrements stock.
//
// Validation failures return before anything is written. Once the header
// exists, a failed line check or line insert marks the sale incomplete and
// returns the error. Failed stock decrements do not stop the remaining
// lines; the sale is returned with status incomplete and the affected
// product ids in StockFailures.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*models.CompletedSale, error) {
	c, err := normalizeLines(req.Items)
	if err != nil {
		return nil, err
	}
	if c.TotalItems() > models.MaxQuantity {
		return nil, apperror.NewValidation("too many items in one sale").
			WithDetail("total_items", c.TotalItems())
	}
	lines := c.Lines()

	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCash
	}
	if !req.PaymentMethod.Valid() {
		return nil, apperror.NewValidation("unknown payment method").
			WithDetail("payment_method", req.PaymentMethod)
	}
	if req.Discount.IsNegative() {
		return nil, apperror.NewValidation("discount must not be negative")
	}
	if !models.IsMoney(req.Discount) {
		return nil, apperror.NewValidation("discount must have at most two decimal places").
			WithDetail("discount", req.Discount)
	}

	products, err := s.validator.snapshot(ctx, lines)
	if err != nil {
		return nil, err
	}

	sale, items := buildSale(req, c, products)
	if req.Discount.GreaterThan(sale.Subtotal) {
		return nil, apperror.NewValidation("discount exceeds subtotal").
			WithDetail("subtotal", sale.Subtotal).
			WithDetail("discount", req.Discount)
	}

	if err := s.repo.InsertSale(ctx, sale); err != nil {
		return nil, storeError(s.log, "create sale header", err)
	}
	log := s.log.With(zap.Stringer("sale_id", sale.ID))

	for _, line := range lines {
		if _, err := s.validator.checkLine(ctx, line); err != nil {
			log.Warn("line check failed after header was written", zap.Int64("product_id", line.ProductID))
			s.markIncomplete(ctx, sale)
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("sale_id", sale.ID)
			}
			return nil, err
		}
	}

	for i := range items {
		items[i].SaleID = sale.ID
	}
	if err := s.repo.InsertSaleItems(ctx, items); err != nil {
		s.markIncomplete(ctx, sale)
		return nil, storeError(log, "create sale lines", err).WithDetail("sale_id", sale.ID)
	}

	var failures []int64
	for _, line := range lines {
		remaining, err := s.repo.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			log.Error("decrement stock failed",
				zap.Int64("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err),
			)
			failures = append(failures, line.ProductID)
			continue
		}
		log.Debug("stock decremented", zap.Int64("product_id", line.ProductID), zap.Int("remaining", remaining))
	}
	if len(failures) > 0 {
		s.markIncomplete(ctx, sale)
	}

	stored, err := s.repo.GetSaleItems(ctx, sale.ID)
	if err != nil {
		log.Warn("reload sale lines failed", zap.Error(err))
		stored = items
	}

	log.Info("sale recorded",
		zap.String("status", string(sale.Status)),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("total_items", sale.TotalItems),
	)

	return &models.CompletedSale{
		Sale:          *sale,
		Items:         stored,
		StockFailures: failures,
	}, nil
}

// buildSale prices every line from the product snapshot so that the header
// subtotal is exactly the sum of line subtotals.
func buildSale(req CheckoutRequest, c *cart.Cart, products []*models.Product) (*models.Sale, []models.SaleItem) {
	lines := c.Lines()
	subtotal := decimal.Zero
	items := make([]models.SaleItem, 0, len(lines))

	for i, line := range lines {
		product := products[i]
		lineSubtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))

		items = append(items, models.SaleItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			UnitPrice:    product.Price,
			Quantity:     line.Quantity,
			Subtotal:     lineSubtotal,
			ItemDiscount: decimal.Zero,
			Total:        lineSubtotal,
		})

		subtotal = subtotal.Add(lineSubtotal)
	}

	sale := &models.Sale{
		Subtotal:      subtotal,
		Discount:      req.Discount,
		Total:         subtotal.Sub(req.Discount),
		TotalItems:    int(c.TotalItems()),
		PaymentMethod: req.PaymentMethod,
		Salesperson:   strings.TrimSpace(req.Salesperson),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        models.SaleStatusCompleted,
	}
	return sale, items
}

// markIncomplete flags a sale whose checkout did not finish. It runs even if
// the request context is already cancelled.
func (s *Service) markIncomplete(ctx context.Context, sale *models.Sale) {
	err := s.repo.SetSaleStatus(context.WithoutCancel(ctx), sale.ID, models.SaleStatusIncomplete)
	if err != nil {
		s.log.Error("mark sale incomplete failed", zap.Stringer("sale_id", sale.ID), zap.Error(err))
		return
	}
	sale.Status = models.SaleStatusIncomplete
}

// GetSale returns the sale header together with its lines.
func (s *Service) GetSale(ctx context.Context, id uuid.UUID) (*models.CompletedSale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return nil, s.mapSaleError("get sale", id, err)
	}

	items, err := s.repo.GetSaleItems(ctx, id)
	if err != nil {
		return nil, s.mapSaleError("get sale items", id, err)
	}

	return &models.CompletedSale{Sale: *sale, Items: items}, nil
}

// ListSales pages through sales of one status, newest first. An empty status
// lists completed sales.
func (s *Service) ListSales(ctx context.Context, status models.SaleStatus, cursor string, limit int) (*store.CursorPage, error) {
	if status == "" {
		status = models.SaleStatusCompleted
	}
	if !status.Valid() {
		return nil, apperror.NewValidation("unknown sale status").WithDetail("status", status)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if _, err := store.DecodeCursor(cursor); err != nil {
		return nil, apperror.NewValidation("invalid cursor")
	}

	page, err := s.repo.ListSales(ctx, status, cursor, limit)
	if err != nil {
		s.log.Error("list sales failed", zap.Error(err))
		return nil, apperror.NewInternal(err)
	}
	return page, nil
}

// ChangeStatus moves a sale to next if the transition is allowed. Stock is
// not restored when a sale is cancelled.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, next models.SaleStatus) (*models.Sale, error) {
	if !next.Valid() {
		return nil, apperror.NewValidation("unknown sale status").WithDetail("status", next)
	}

	err := s.repo.UpdateStatus(ctx, id, func(current *models.Sale) (models.SaleStatus, error) {
		if !current.Status.CanTransitionTo(next) {
			return "", apperror.NewBusinessRule("sale status change not allowed").
				WithDetail("from", current.Status).
				WithDetail("to", next)
		}
		return next, nil
	})
	if err != nil {
		if _, ok := apperror.AsAppError(err); ok {
			return nil, err
		}
		return nil, s.mapSaleError("change sale status", id, err)
	}

	s.log.Info("sale status changed", zap.Stringer("sale_id", id), zap.String("status", string(next)))

	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return nil, s.mapSaleError("get sale", id, err)
	}
	return sale, nil
}

// storeError turns a failed write into an AppError. Rows rejected by a
// constraint are the caller's fault; anything else is internal.
func storeError(log *zap.Logger, op string, err error) *apperror.AppError {
	if database.IsConstraintViolation(err) {
		log.Warn(op+" rejected by constraint", zap.Error(err))
		return apperror.NewValidation("sale rejected by database constraint").WithCause(err)
	}
	log.Error(op+" failed", zap.Error(err))
	return apperror.NewInternal(err)
}

func (s *Service) mapSaleError(op string, id uuid.UUID, err error) error {
	if errors.Is(err, database.ErrSaleNotFound) {
		return apperror.NewNotFound("sale", id)
	}
	s.log.Error(op+" failed", zap.Stringer("sale_id", id), zap.Error(err))
	return apperror.NewInternal(err)
}

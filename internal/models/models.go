package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Inactive products are hidden from the catalog
// and from checkout but stay referenced by sale history.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"product"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

const (
	// MoneyScale is the number of decimal places kept by money columns.
	MoneyScale = 2
	// MaxQuantity is the largest stock or line quantity an INTEGER column holds.
	MaxQuantity = math.MaxInt32
)

// IsMoney reports whether d is stored without rounding.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentOther    PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
	SaleStatusPending   SaleStatus = "pending"
	// SaleStatusIncomplete marks a sale whose checkout failed after the header
	// was committed.
	SaleStatusIncomplete SaleStatus = "incomplete"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleStatusCompleted, SaleStatusCancelled, SaleStatusPending, SaleStatusIncomplete:
		return true
	}
	return false
}

// CanTransitionTo reports whether a sale in status s may move to next.
func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	switch s {
	case SaleStatusPending, SaleStatusIncomplete:
		return next == SaleStatusCompleted || next == SaleStatusCancelled
	case SaleStatusCompleted:
		return next == SaleStatusCancelled
	}
	return false
}

// Sale is the header row of a checkout. Total = Subtotal - Discount.
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	SoldAt        time.Time       `json:"sold_at"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalItems    int             `json:"total_items"`
	Discount      decimal.Decimal `json:"discount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Salesperson   string          `json:"salesperson,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        SaleStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleItem is one line of a sale with the product snapshot taken at sale time.
type SaleItem struct {
	ID           uuid.UUID       `json:"id"`
	SaleID       uuid.UUID       `json:"sale_id"`
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ItemDiscount decimal.Decimal `json:"item_discount"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CompletedSale is a sale header together with its lines.
type CompletedSale struct {
	Sale
	Items []SaleItem `json:"items"`
	// StockFailures lists products whose stock decrement failed.
	StockFailures []int64 `json:"stock_failures,omitempty"`
}

// CartLine is a requested product quantity; it is never persisted.
type CartLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ProductSales is one row of the sales-by-product report.
type ProductSales struct {
	ProductID    int64           `json:"product_id"`
	Product      string          `json:"product"`
	Price        decimal.Decimal `json:"price"`
	QuantitySold int             `json:"quantity_sold"`
	TotalSold    decimal.Decimal `json:"total_sold"`
}

// Package cart holds the checkout cart as an explicit value built from raw
// request lines.
package cart

import (
	"errors"
	"fmt"

	"github.com/safar/cafe-pos/internal/models"
)

var (
	ErrEmpty           = errors.New("cart is empty")
	ErrInvalidProduct  = errors.New("cart line has no product")
	ErrInvalidQuantity = errors.New("cart line quantity must be between 1 and 2147483647")
)

// Cart keeps one line per product in the order products were first added.
type Cart struct {
	lines []models.CartLine
}

func New() *Cart {
	return &Cart{}
}

// FromLines builds a cart from raw lines, merging repeated products. It fails
// on the first malformed line or when no lines are given.
func FromLines(lines []models.CartLine) (*Cart, error) {
	c := New()
	for i, line := range lines {
		if err := c.Add(line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
	}
	if c.Len() == 0 {
		return nil, ErrEmpty
	}
	return c, nil
}

// Add increases the quantity of productID by qty. The merged quantity must
// stay within models.MaxQuantity.
func (c *Cart) Add(productID int64, qty int) error {
	if productID <= 0 {
		return ErrInvalidProduct
	}
	if qty <= 0 || qty > models.MaxQuantity {
		return ErrInvalidQuantity
	}

	if i := c.index(productID); i >= 0 {
		if qty > models.MaxQuantity-c.lines[i].Quantity {
			return ErrInvalidQuantity
		}
		c.lines[i].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, models.CartLine{ProductID: productID, Quantity: qty})
	return nil
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// TotalItems sums quantities across lines. Each line is bounded by
// models.MaxQuantity, so the sum does not overflow int64.
func (c *Cart) TotalItems() int64 {
	var total int64
	for _, line := range c.lines {
		total += int64(line.Quantity)
	}
	return total
}

func (c *Cart) index(productID int64) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to SaleStatus
		allowed  bool
	}{
		{SaleStatusPending, SaleStatusCompleted, true},
		{SaleStatusPending, SaleStatusCancelled, true},
		{SaleStatusCompleted, SaleStatusCancelled, true},
		{SaleStatusIncomplete, SaleStatusCompleted, true},
		{SaleStatusIncomplete, SaleStatusCancelled, true},
		{SaleStatusCompleted, SaleStatusPending, false},
		{SaleStatusCompleted, SaleStatusCompleted, false},
		{SaleStatusCancelled, SaleStatusCompleted, false},
		{SaleStatusCancelled, SaleStatusPending, false},
		{SaleStatusPending, SaleStatusIncomplete, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEnumValidity(t *testing.T) {
	for _, m := range []PaymentMethod{PaymentCash, PaymentCard, PaymentTransfer, PaymentOther} {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, PaymentMethod("crypto").Valid())
	assert.False(t, PaymentMethod("").Valid())

	for _, s := range []SaleStatus{SaleStatusCompleted, SaleStatusCancelled, SaleStatusPending, SaleStatusIncomplete} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, SaleStatus("refunded").Valid())
}

func TestProductJSONUsesProductKey(t *testing.T) {
	data, err := json.Marshal(Product{ID: 3, Name: "Tea", Price: decimal.RequireFromString("1.50")})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Tea", raw["product"])
	assert.NotContains(t, raw, "name")
}

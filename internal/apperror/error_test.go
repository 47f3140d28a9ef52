package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppErrorThroughWrapping(t *testing.T) {
	base := NewInsufficientStock(7, 3, 2)
	wrapped := fmt.Errorf("checkout: %w", base)

	got, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, got)
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
	assert.True(t, HasCode(wrapped, CodeInsufficientStock))
	assert.Equal(t, 2, got.Details["available"])
}

func TestGetHTTPStatusForPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
	assert.False(t, HasCode(errors.New("boom"), CodeNotFound))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("bad cart").WithDetail("line", 2)

	assert.Equal(t, map[string]any{"line": 2}, err.Details)
	assert.Equal(t, "VALIDATION_ERROR: bad cart", err.Error())
}

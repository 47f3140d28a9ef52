package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUpIsAscending(t *testing.T) {
	names, err := List(Up)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_create_products.up.sql",
		"000002_create_sales.up.sql",
	}, names)
}

func TestListDownIsDescending(t *testing.T) {
	names, err := List(Down)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000002_create_sales.down.sql",
		"000001_create_products.down.sql",
	}, names)
}

func TestListRejectsUnknownDirection(t *testing.T) {
	_, err := List("sideways")
	assert.Error(t, err)
}

func TestHasAnyPrefix(t *testing.T) {
	assert.True(t, hasAnyPrefix("000001_create_products.up.sql", []string{"000001"}))
	assert.False(t, hasAnyPrefix("000002_create_sales.up.sql", []string{"000001"}))
}

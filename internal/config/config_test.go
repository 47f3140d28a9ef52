package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5, cfg.Store.LowStockThreshold)
	assert.Equal(t, time.UTC, cfg.Store.Location)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("LOW_STOCK_THRESHOLD", "12")
	t.Setenv("STORE_TIMEZONE", "America/Mexico_City")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 12, cfg.Store.LowStockThreshold)
	assert.Equal(t, "America/Mexico_City", cfg.Store.Location.String())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("STORE_TIMEZONE", "UTC")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "many")
	t.Setenv("SERVER_WRITE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	t.Setenv("STORE_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeThreshold(t *testing.T) {
	t.Setenv("STORE_TIMEZONE", "UTC")
	t.Setenv("LOW_STOCK_THRESHOLD", "-1")

	_, err := Load()
	assert.Error(t, err)
}

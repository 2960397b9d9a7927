package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PGSQL_URL", "postgres://localhost/ucoin")
	t.Setenv("DB_LOCK_TIMEOUT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/ucoin", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.DBLockTimeout)
	assert.Equal(t, 10*time.Minute, cfg.BalanceSnapshot)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_LOCK_TIMEOUT", "750ms")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("BALANCE_SNAPSHOT_TTL", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.DBLockTimeout)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.BalanceSnapshot)
}

func TestLoadConfig_Production(t *testing.T) {
	t.Setenv("IS_PRODUCTION", "true")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "warn", cfg.LogLevel)
}

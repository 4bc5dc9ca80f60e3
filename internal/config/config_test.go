package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token-authority", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)

	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL())
	assert.Equal(t, 14*24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, 10*time.Minute, cfg.Auth.ReducedTTL())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AUTH_SECRET_KEY", "super-secret")
	t.Setenv("AUTH_ACCESS_TOKEN_EXPIRATION_MS", "60000")
	t.Setenv("AUTH_REFRESH_TOKEN_EXPIRATION_MS", "120000")
	t.Setenv("AUTH_REDUCED_TOKEN_TTL_MS", "30000")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "super-secret", cfg.Auth.SecretKey)
	assert.Equal(t, time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 2*time.Minute, cfg.Auth.RefreshTTL())
	assert.Equal(t, 30*time.Second, cfg.Auth.ReducedTTL())
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFallsBackOnBadIntegers(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TOKEN_EXPIRATION_MS", "one hour")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTTL())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRateLimitConfigClampsValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()

	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfigParsesMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	t.Setenv("CACHE_TTL", "bogus")

	cfg := LoadCacheConfig()

	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "chefs-cache", cfg.Prefix)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_LIST", " a, ,b ")
	t.Setenv("X_INT", "nope")

	assert.False(t, envBool("X_BOOL", true))
	assert.Equal(t, []string{"a", "b"}, envList("X_LIST", nil))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, []string{"d"}, envList("X_MISSING", []string{"d"}))
}

func TestLoadRedisConfigPrefersHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()

	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.True(t, cfg.TLS)
}

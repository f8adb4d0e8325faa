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

	assert.Equal(t, "0.0.0.0", cfg.BindIP)
	assert.Equal(t, uint16(6969), cfg.BindPort)
	assert.Equal(t, "0.0.0.0:6969", cfg.Addr())
	assert.Equal(t, "DEV_INFO", cfg.Log.DevLogging)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "https://avatar.cdev.shop", cfg.Avatar.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Avatar.FetchTimeout)
	assert.Equal(t, 15*time.Second, cfg.TransformTimeout)
	assert.Equal(t, 1, cfg.Cache.Shards)
	assert.False(t, cfg.Cache.CoalesceMisses)
}

func TestLoad(t *testing.T) {
	t.Setenv("BIND_IP", "127.0.0.1")
	t.Setenv("BIND_PORT", "8080")
	t.Setenv("DEV_LOGGING", "DEV_DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("AVATAR_BASE_URL", "http://localhost:9000")
	t.Setenv("FETCH_TIMEOUT", "2s")
	t.Setenv("FETCH_RATE", "5.5")
	t.Setenv("CACHE_SHARDS", "16")
	t.Setenv("COALESCE_MISSES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "DEV_DEBUG", cfg.Log.DevLogging)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://localhost:9000", cfg.Avatar.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Avatar.FetchTimeout)
	assert.InDelta(t, 5.5, cfg.Avatar.Rate, 0.0001)
	assert.Equal(t, 16, cfg.Cache.Shards)
	assert.True(t, cfg.Cache.CoalesceMisses)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"BIND_PORT":     "not-a-port",
		"FETCH_TIMEOUT": "soon",
		"LOG_FORMAT":    "xml",
		"FETCH_RATE":    "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAddrIPv6(t *testing.T) {
	cfg := &Config{BindIP: "::1", BindPort: 80}
	assert.Equal(t, "[::1]:80", cfg.Addr())
}

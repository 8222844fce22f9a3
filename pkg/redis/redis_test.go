package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/stockcast/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(disabledClient(t), "test")

	require.NoError(t, cache.Set(ctx, "key", map[string]int{"a": 1}, time.Minute))

	var result map[string]int
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "disabled cache must always miss")

	n, err := cache.DeletePattern(ctx, "*")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_NilIsNoop(t *testing.T) {
	var cache *Cache
	found, err := cache.Get(context.Background(), "key", new(string))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"ForecastKey", ForecastKey("TCS.NS", "2024-01-15", 7), "forecast:TCS.NS:2024-01-15:7"},
		{"PredictionKey", PredictionKey("TCS.NS", "2024-01-15"), "predict:TCS.NS:2024-01-15"},
		{"SymbolPattern", SymbolPattern("TCS.NS"), "*:TCS.NS:*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

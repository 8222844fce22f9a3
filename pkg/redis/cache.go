package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides JSON caching on top of Client
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value; a miss returns (false, nil)
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// DeletePattern removes every cached key matching pattern (e.g. "forecast:TCS.NS:*")
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if c == nil || !c.client.Enabled() {
		return 0, nil
	}

	var keys []string
	iter := c.client.Redis().Scan(ctx, 0, c.fullKey(pattern), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("cache scan failed: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	n, err := c.client.Redis().Del(ctx, keys...).Result()
	return int(n), err
}

// Common cache key generators
// 마지막 거래일을 키에 포함: 새 행이 저장되면 자연스럽게 무효화

// ForecastKey identifies a multi-day recommendation made from data ending on lastDate
func ForecastKey(symbol, lastDate string, days int) string {
	return fmt.Sprintf("forecast:%s:%s:%d", symbol, lastDate, days)
}

// PredictionKey identifies a next-day prediction made from data ending on lastDate
func PredictionKey(symbol, lastDate string) string {
	return fmt.Sprintf("predict:%s:%s", symbol, lastDate)
}

// SymbolPattern matches every cached result for a symbol
func SymbolPattern(symbol string) string {
	return fmt.Sprintf("*:%s:*", symbol)
}

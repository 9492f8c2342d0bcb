// Package cache provides a Redis read-through cache for computed analysis
// results. A disabled client misses on every read and drops every write.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/largecap-roi-service/internal/config"
)

const (
	KeyTopInvestments = "analysis:top"
	roiKeyPrefix      = "roi:"

	DefaultTTL = 10 * time.Minute
)

// ROIKey is the cache key for a trailing ROI result
func ROIKey(symbol string, days int) string {
	return fmt.Sprintf("%s%s:%d", roiKeyPrefix, symbol, days)
}

// Client wraps the Redis client
type Client struct {
	rdb     *redis.Client
	ttl     time.Duration
	enabled bool
}

// New connects to Redis when enabled in cfg
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewFromRedis(rdb, cfg.TTL), nil
}

// NewFromRedis wraps an existing connection
func NewFromRedis(rdb *redis.Client, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Client{rdb: rdb, ttl: ttl, enabled: true}
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// GetJSON decodes the value at key into dest. found is false on a miss.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores value at key with the client TTL
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// InvalidateAnalysis drops the ranking and every cached ROI result
func (c *Client) InvalidateAnalysis(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	keys := []string{KeyTopInvestments}
	iter := c.rdb.Scan(ctx, 0, roiKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan roi keys: %w", err)
	}

	return c.Delete(ctx, keys...)
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

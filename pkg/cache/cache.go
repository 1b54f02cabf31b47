// Package cache provides a small JSON read-through cache for published
// content, backed by Redis. The cache is optional: a nil *Cache is a no-op,
// so the service runs unchanged without a Redis address configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New connects to Redis and verifies the connection. Returns an error when the
// server is unreachable; the caller decides whether that is fatal.
func New(addr, password string, db int, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("content cache connected", slog.String("addr", addr))

	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

// Get unmarshals the cached value into dest. Returns false on miss or any
// cache error; cache failures must never fail the read path.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", slog.String("key", key))
		c.client.Del(ctx, key)
		return false
	}
	return true
}

// Set stores value as JSON under key, best-effort.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed", slog.String("key", key), slog.Any("error", err))
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}

// Invalidate removes the given keys, best-effort. Called after CMS writes.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", slog.Any("error", err))
	}
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis implementation of Cache.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to a Redis server.
// address format: "redis://[user:password@]host:port/db"
func NewRedisCache(ctx context.Context, address string) (*RedisCache, error) {
	opts, err := redis.ParseURL(address)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis address: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	pingCtx, cancel := withTimeout(ctx)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return &RedisCache{client: client}, nil
}

// Store sets key to the sentinel value.
func (c *RedisCache) Store(ctx context.Context, key string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if err := c.client.Set(ctx, key, Sentinel, 0).Err(); err != nil {
		return fmt.Errorf("failed to store key %s: %w", key, err)
	}
	return nil
}

// Get reports whether key exists.
func (c *RedisCache) Get(ctx context.Context, key string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := c.client.Get(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return true, nil
}

// Close closes the redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

package cache

import (
	"context"
	"errors"
	"sync"
)

var errClosed = errors.New("cache is closed")

// InMemoryCache is a thread-safe in-memory implementation of Cache.
// Used for tests and one-off local runs where nothing needs to survive the process.
type InMemoryCache struct {
	mu     sync.RWMutex
	keys   map[string]string
	closed bool
}

// NewInMemoryCache creates a new in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{keys: make(map[string]string)}
}

// Store marks key as present.
func (c *InMemoryCache) Store(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errClosed
	}
	c.keys[key] = Sentinel
	return nil
}

// Get reports whether key is present.
func (c *InMemoryCache) Get(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false, errClosed
	}
	_, ok := c.keys[key]
	return ok, nil
}

// Len returns the number of stored keys.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Close marks the cache closed; later operations fail.
func (c *InMemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

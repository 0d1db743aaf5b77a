// Package cache defines the membership cache used to deduplicate published records.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"sasquatch-backpack/src/config"
)

// Sentinel is the value stored for every key. Only presence is meaningful.
const Sentinel = "value"

// ErrUnsupportedScheme is returned by Open for addresses it cannot route to a backend.
var ErrUnsupportedScheme = errors.New("unsupported cache address scheme")

// Cache is a durable key -> presence store.
// Implementations block until the underlying I/O has completed.
type Cache interface {
	// Store records the key as present.
	Store(ctx context.Context, key string) error

	// Get reports whether the key is present.
	Get(ctx context.Context, key string) (bool, error)

	// Close releases the backend connection.
	Close() error
}

// Open connects to the cache at address, selecting the backend by URL scheme:
// redis://, rediss:// and unix:// use Redis, postgres:// and postgresql:// use Postgres,
// memory:// keeps keys in process.
func Open(ctx context.Context, address string) (Cache, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("invalid cache address %q: %w", address, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss", "unix":
		return NewRedisCache(ctx, address)
	case "postgres", "postgresql":
		return NewPostgresCache(ctx, address)
	case "memory":
		return NewInMemoryCache(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// withTimeout bounds a single cache operation.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, config.RequestTimeout)
}

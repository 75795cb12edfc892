package cache

import (
	"context"
	"time"
)

// Cache defines the primitive operations for a key-value cache with expiry.
// T is the type of value stored in the cache.
type Cache[T any] interface {
	// Get retrieves a single value from cache.
	// Returns ErrCacheMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a single value in cache with TTL
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// SetNX stores the value only when the key is absent or expired and
	// reports whether it was stored. Used to claim one-shot keys.
	SetNX(ctx context.Context, key string, value T, ttl time.Duration) (bool, error)

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error

	// Health checks if the cache is healthy
	Health(ctx context.Context) error
}

package common

import (
	"context"
	"time"
)

// CacheInterface defines the contract for cache implementations.
// Values are stored as JSON so the in-memory and Redis backends hand back
// identical shapes.
type CacheInterface interface {
	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get decodes the cached value into dest.
	// Returns false, nil on a miss.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	Delete(ctx context.Context, key string) error

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}

// Package db defines the key-value store contract used for caching.
package db

import (
	"context"
	"time"
)

// Store is a byte-oriented KV store with TTL support.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close()
}

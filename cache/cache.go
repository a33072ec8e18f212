// Package cache stores JSON-encoded lookup results for a short TTL.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cache is a TTL key/value store. Values are JSON encoded, so Get always
// decodes into a fresh copy.
type Cache interface {
	// Get decodes key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Remember returns the cached value for key, or calls load and caches its
// result. Cache failures are logged and fall through to load.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c == nil || ttl <= 0 {
		return load(ctx)
	}

	ok, err := c.Get(ctx, key, &v)
	if err != nil {
		zap.L().Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return v, nil
	}

	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		zap.L().Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

// Package cache provides the read cache and the per-key in-flight lease used
// to serialise mutations. Redis backs both in deployed environments; the
// in-memory implementations serve development and tests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrLocked is returned by Locker.Acquire when another holder owns the key.
var ErrLocked = errors.New("cache: lock held")

// Cache stores opaque values under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Lease is a held lock. Release is idempotent and never frees a lock that
// has since expired and been taken by someone else.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive, expiring leases.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// GetJSON decodes a cached JSON value into dst. A miss returns false.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value as JSON.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

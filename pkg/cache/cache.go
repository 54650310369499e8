package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations interface.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	// SetRaw writes all values in one transaction.
	SetRaw(ctx context.Context, values map[string][]byte, expiration time.Duration) error
	// GetRaw returns ErrCacheMiss unless every key is present.
	GetRaw(ctx context.Context, keys ...string) (map[string][]byte, error)
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

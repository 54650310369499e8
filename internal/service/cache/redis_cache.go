package cache

import (
	"context"
	"errors"
	"time"

	pkgcache "StockPulse/pkg/cache"
)

// RedisBytes adapts the shared Redis cache to BytesCache so every API replica sees the same entries.
type RedisBytes struct {
	svc pkgcache.Service
}

func NewRedisBytes(svc pkgcache.Service) *RedisBytes {
	return &RedisBytes{svc: svc}
}

func (r *RedisBytes) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	got, err := r.svc.GetRaw(ctx, key)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return got[key], true, nil
}

func (r *RedisBytes) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.svc.SetRaw(ctx, map[string][]byte{key: value}, ttl)
}

func (r *RedisBytes) Invalidate(ctx context.Context, prefix string) error {
	return r.svc.DeleteByPattern(ctx, prefix+"*")
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgcache "StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
)

// RedisArtifactStore keeps the three artifact blobs per symbol under models:{symbol}:*.
type RedisArtifactStore struct {
	cache pkgcache.Service
	l     *applogger.Logger
}

var _ domrepo.ArtifactStore = (*RedisArtifactStore)(nil)

func NewRedisArtifactStore(c pkgcache.Service, l *applogger.Logger) *RedisArtifactStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &RedisArtifactStore{cache: c, l: l}
}

func artifactKeys(symbol string) (model, scaler, features string) {
	base := "models:" + symbol
	return base + ":model", base + ":scaler", base + ":features"
}

// SaveArtifact writes all three blobs atomically with no expiry.
func (s *RedisArtifactStore) SaveArtifact(ctx context.Context, symbol string, b models.ArtifactBlobs) error {
	mk, sk, fk := artifactKeys(symbol)
	err := s.cache.SetRaw(ctx, map[string][]byte{mk: b.Model, sk: b.Scaler, fk: b.Features}, 0)
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", symbol, err)
	}
	return nil
}

func (s *RedisArtifactStore) LoadArtifact(ctx context.Context, symbol string) (models.ArtifactBlobs, error) {
	mk, sk, fk := artifactKeys(symbol)
	raw, err := s.cache.GetRaw(ctx, mk, sk, fk)
	if errors.Is(err, pkgcache.ErrCacheMiss) {
		return models.ArtifactBlobs{}, fmt.Errorf("%s: %w", symbol, models.ErrArtifactNotFound)
	}
	if err != nil {
		return models.ArtifactBlobs{}, fmt.Errorf("load artifact %s: %w", symbol, err)
	}
	return models.ArtifactBlobs{Model: raw[mk], Scaler: raw[sk], Features: raw[fk]}, nil
}

// Lock takes lock:train:{symbol}. The release func uses a fresh context so it works after ctx is cancelled.
func (s *RedisArtifactStore) Lock(ctx context.Context, symbol string, ttl time.Duration) (func(), bool, error) {
	key := "lock:train:" + symbol
	ok, err := s.cache.TryLock(ctx, key, ttl)
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", symbol, err)
	}
	if !ok {
		return func() {}, false, nil
	}
	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Unlock(rctx, key); err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
			s.l.Warn("release training lock", applogger.Symbol(symbol), applogger.Error(err))
		}
	}
	return release, true, nil
}

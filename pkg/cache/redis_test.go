package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client, "test"), mr
}

func TestSetGetJSON(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Symbol string  `json:"symbol"`
		Close  float64 `json:"close"`
	}
	require.NoError(t, c.Set(ctx, "quote:AAPL", payload{"AAPL", 190.5}, time.Minute))
	assert.True(t, mr.Exists("test:quote:AAPL"))

	var got payload
	require.NoError(t, c.Get(ctx, "quote:AAPL", &got))
	assert.Equal(t, payload{"AAPL", 190.5}, got)

	err := c.Get(ctx, "quote:MSFT", &got)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestRawRoundTripAndMiss(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetRaw(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("two\n")}, 0))

	got, err := c.GetRaw(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("two\n"), got["b"])

	_, err = c.GetRaw(ctx, "a", "missing")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}

func TestDeleteByPattern(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "api:AAPL:x", "1", 0))
	require.NoError(t, c.Set(ctx, "api:AAPL:y", "2", 0))
	require.NoError(t, c.Set(ctx, "api:MSFT:x", "3", 0))

	require.NoError(t, c.DeleteByPattern(ctx, "api:AAPL:*"))
	assert.False(t, mr.Exists("test:api:AAPL:x"))
	assert.False(t, mr.Exists("test:api:AAPL:y"))
	assert.True(t, mr.Exists("test:api:MSFT:x"))
}

func TestTryLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.TryLock(ctx, "lock:AAPL", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "lock:AAPL", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "lock:AAPL"))
	ok, err = c.TryLock(ctx, "lock:AAPL", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("test:lock:AAPL"))
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "api:forecast:AAPL:3", GenerateKeyWithParams("api:forecast", "AAPL", 3))
}

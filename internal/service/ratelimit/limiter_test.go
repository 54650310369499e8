package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowRefills(t *testing.T) {
	l := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("c", 2, 1))
	assert.True(t, l.Allow("c", 2, 1))
	assert.False(t, l.Allow("c", 2, 1))
	// other keys have their own bucket
	assert.True(t, l.Allow("d", 2, 1))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("c", 2, 1))
	assert.False(t, l.Allow("c", 2, 1))
}

func TestWaitReturnsOnCancel(t *testing.T) {
	l := New()
	assert.True(t, l.Allow("p", 1, 0.001))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, "p", 1, 0.001), context.DeadlineExceeded)
}

func TestWaitAcquires(t *testing.T) {
	l := New()
	start := time.Now()
	assert.NoError(t, l.Wait(context.Background(), "q", 1, 100))
	assert.NoError(t, l.Wait(context.Background(), "q", 1, 100))
	assert.Less(t, time.Since(start), time.Second)
}

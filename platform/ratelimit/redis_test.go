package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, "rl:test", limit, time.Minute), mr
}

func TestAllowWithinWindow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)
	frozen := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	limiter.now = func() time.Time { return frozen }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, ok, "other keys have their own counter")
}

func TestNextWindowResets(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	current := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	limiter.now = func() time.Time { return current }
	ctx := context.Background()

	ok, _ := limiter.Allow(ctx, "ip")
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "ip")
	assert.False(t, ok)

	current = current.Add(time.Minute)
	ok, err := limiter.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCounterExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t, 5)
	_, err := limiter.Allow(context.Background(), "ip")
	require.NoError(t, err)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))
}

func TestAllowReportsRedisFailure(t *testing.T) {
	limiter, mr := newTestLimiter(t, 5)
	mr.Close()

	_, err := limiter.Allow(context.Background(), "ip")
	assert.Error(t, err)
}

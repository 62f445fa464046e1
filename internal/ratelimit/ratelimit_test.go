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

func newTestLimiter(t *testing.T, window time.Duration, limit int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, window, limit), mr
}

func TestIncrWithTTLSetsExpiryOnFirstHit(t *testing.T) {
	limiter, mr := newTestLimiter(t, time.Minute, 5)
	ctx := context.Background()

	count, err := limiter.IncrWithTTL(ctx, "k", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 30*time.Second, mr.TTL("k"))

	mr.FastForward(10 * time.Second)
	count, err = limiter.IncrWithTTL(ctx, "k", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 20*time.Second, mr.TTL("k"))
}

func TestAllowBlocksAfterLimitAndResetsAfterWindow(t *testing.T) {
	limiter, mr := newTestLimiter(t, time.Minute, 2)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		allowed, count, err := limiter.Allow(ctx, "login", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(i), count)
	}

	allowed, count, err := limiter.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)

	allowed, _, err = limiter.Allow(ctx, "register", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed, "scopes are counted separately")

	mr.FastForward(time.Minute + time.Second)
	allowed, count, err = limiter.Allow(ctx, "login", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), count)
}

func TestAllowSurfacesRedisErrors(t *testing.T) {
	limiter, mr := newTestLimiter(t, time.Minute, 2)
	mr.SetError("READONLY")

	_, _, err := limiter.Allow(context.Background(), "login", "10.0.0.1")
	assert.Error(t, err)
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	var limiter *Limiter
	allowed, _, err := limiter.Allow(context.Background(), "login", "x")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(context.Background(), "", time.Minute, 1)
	assert.Error(t, err)
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter, err := New(context.Background(), "redis://"+mr.Addr(), time.Minute, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, limiter.Window())
}

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

func newTestLimiter(t *testing.T, capacity, refillTokens float64, refillInterval time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLimiter(client, "test", capacity, refillTokens, refillInterval), server
}

func TestLimiter_AllowsWithinCapacity(t *testing.T) {
	limiter, _ := newTestLimiter(t, 5, 5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "newsapi")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}
}

func TestLimiter_RejectsOverCapacity(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2, 2, time.Minute)
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "gdelt")
	_, _ = limiter.Allow(ctx, "gdelt")

	allowed, err := limiter.Allow(ctx, "gdelt")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLimiter_TracksScopesIndependently(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 1, time.Minute)
	ctx := context.Background()

	allowedA, err := limiter.Allow(ctx, "scope-a")
	require.NoError(t, err)
	assert.True(t, allowedA)

	allowedB, err := limiter.Allow(ctx, "scope-b")
	require.NoError(t, err)
	assert.True(t, allowedB)
}

func TestLimiter_RefillsAfterInterval(t *testing.T) {
	limiter, server := newTestLimiter(t, 1, 1, time.Second)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "newsapi")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "newsapi")
	require.NoError(t, err)
	require.False(t, allowed)

	server.FastForward(2 * time.Second)

	allowed, err = limiter.Allow(ctx, "newsapi")
	require.NoError(t, err)
	assert.True(t, allowed)
}

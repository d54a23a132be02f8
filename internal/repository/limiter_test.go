package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.CheckRateLimit(ctx, 201, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
	}

	allowed, err := limiter.CheckRateLimit(ctx, 201, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request should be limited")

	// Other tenants have their own window.
	allowed, err = limiter.CheckRateLimit(ctx, 202, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryLimiterWindowExpiry(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()

	allowed, err := limiter.CheckRateLimit(ctx, 201, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.CheckRateLimit(ctx, 201, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = limiter.CheckRateLimit(ctx, 201, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed, "window should reset after expiry")
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewRedisLimiter(client)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.CheckRateLimit(ctx, 201, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.CheckRateLimit(ctx, 201, 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// После истечения окна счетчик сбрасывается.
	mr.FastForward(2 * time.Minute)
	allowed, err = limiter.CheckRateLimit(ctx, 201, 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

type failingLimiter struct{}

func (failingLimiter) CheckRateLimit(context.Context, int64, int, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func TestFailoverLimiterFallsBack(t *testing.T) {
	logger := zerolog.New(os.Stdout)
	fallback := NewMemoryLimiter()
	limiter := NewFailoverLimiter(failingLimiter{}, fallback, &logger)

	ctx := context.Background()
	allowed, err := limiter.CheckRateLimit(ctx, 201, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Subsequent calls stay on the fallback and share its counters.
	allowed, err = limiter.CheckRateLimit(ctx, 201, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.CheckRateLimit(ctx, 201, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestFailoverLimiterPrefersPrimary(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := zerolog.New(os.Stdout)
	limiter := NewFailoverLimiter(NewRedisLimiter(client), NewMemoryLimiter(), &logger)

	allowed, err := limiter.CheckRateLimit(context.Background(), 201, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// The counter landed in redis, not in the memory fallback.
	assert.True(t, mr.Exists("booking_rate:201"))
}

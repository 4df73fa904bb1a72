package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T, ttl time.Duration) (*RedisScheduleCache, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisScheduleCache(client, ttl), s
}

func TestRedisScheduleCache(t *testing.T) {
	cache, _ := setupRedisCache(t, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSchedule", func(t *testing.T) {
		require.NoError(t, cache.SetSchedule(ctx, "pro-1", sampleEvents()))

		got, ok, err := cache.GetSchedule(ctx, "pro-1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, got, 1)
		assert.Equal(t, "a1", got[0].ID)
		assert.Equal(t, "Pipe repair", got[0].Title)
	})

	t.Run("GetMiss", func(t *testing.T) {
		_, ok, err := cache.GetSchedule(ctx, "pro-missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Invalidate", func(t *testing.T) {
		require.NoError(t, cache.SetSchedule(ctx, "pro-2", sampleEvents()))
		require.NoError(t, cache.InvalidateSchedule(ctx, "pro-2"))

		_, ok, err := cache.GetSchedule(ctx, "pro-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRedisScheduleCacheTTL(t *testing.T) {
	cache, s := setupRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetSchedule(ctx, "pro-1", sampleEvents()))

	s.FastForward(2 * time.Minute)

	_, ok, err := cache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRateLimit(t *testing.T) {
	cache, s := setupRedisCache(t, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := cache.CheckRateLimit(ctx, "client-1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := cache.CheckRateLimit(ctx, "client-1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Counter expires with the window.
	s.FastForward(2 * time.Minute)
	allowed, err = cache.CheckRateLimit(ctx, "client-1", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

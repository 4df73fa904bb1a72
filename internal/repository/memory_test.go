package repository

import (
	"context"
	"testing"
	"time"

	"zolver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []models.CalendarEvent {
	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	return []models.CalendarEvent{
		{ID: "a1", Title: "Pipe repair", Start: start, End: start.Add(2 * time.Hour), Color: models.ColorPlatformJob},
	}
}

func TestMemoryScheduleCache(t *testing.T) {
	cache := NewMemoryScheduleCache(time.Minute)
	ctx := context.Background()

	_, ok, err := cache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetSchedule(ctx, "pro-1", sampleEvents()))

	got, ok, err := cache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)

	require.NoError(t, cache.InvalidateSchedule(ctx, "pro-1"))

	_, ok, err = cache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryScheduleCacheTTL(t *testing.T) {
	cache := NewMemoryScheduleCache(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.SetSchedule(ctx, "pro-1", sampleEvents()))

	time.Sleep(20 * time.Millisecond)

	_, ok, err := cache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRateLimit(t *testing.T) {
	cache := NewMemoryScheduleCache(time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := cache.CheckRateLimit(ctx, "client-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := cache.CheckRateLimit(ctx, "client-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Separate keys do not share the budget.
	allowed, err = cache.CheckRateLimit(ctx, "client-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryRateLimitWindowReset(t *testing.T) {
	cache := NewMemoryScheduleCache(time.Minute)
	ctx := context.Background()

	allowed, err := cache.CheckRateLimit(ctx, "client-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = cache.CheckRateLimit(ctx, "client-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(20 * time.Millisecond)

	allowed, err = cache.CheckRateLimit(ctx, "client-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed)
}

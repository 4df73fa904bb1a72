package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"zolver/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCache fails every call until healed.
type flakyCache struct {
	*MemoryScheduleCache
	failing bool
}

func (f *flakyCache) GetSchedule(ctx context.Context, professionalID string) ([]models.CalendarEvent, bool, error) {
	if f.failing {
		return nil, false, errors.New("connection refused")
	}
	return f.MemoryScheduleCache.GetSchedule(ctx, professionalID)
}

func (f *flakyCache) SetSchedule(ctx context.Context, professionalID string, events []models.CalendarEvent) error {
	if f.failing {
		return errors.New("connection refused")
	}
	return f.MemoryScheduleCache.SetSchedule(ctx, professionalID, events)
}

func (f *flakyCache) InvalidateSchedule(ctx context.Context, professionalID string) error {
	if f.failing {
		return errors.New("connection refused")
	}
	return f.MemoryScheduleCache.InvalidateSchedule(ctx, professionalID)
}

func (f *flakyCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if f.failing {
		return false, errors.New("connection refused")
	}
	return f.MemoryScheduleCache.CheckRateLimit(ctx, key, limit, window)
}

func newFailoverFixture(failing bool) (*FailoverScheduleCache, *flakyCache, *MemoryScheduleCache) {
	primary := &flakyCache{MemoryScheduleCache: NewMemoryScheduleCache(time.Minute), failing: failing}
	fallback := NewMemoryScheduleCache(time.Minute)
	logger := zerolog.New(io.Discard)
	return NewFailoverScheduleCache(primary, fallback, &logger), primary, fallback
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	cache, primary, fallback := newFailoverFixture(false)
	ctx := context.Background()

	require.NoError(t, cache.SetSchedule(ctx, "pro-1", sampleEvents()))

	// The write landed on the primary, not the fallback.
	_, ok, err := primary.MemoryScheduleCache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = fallback.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := cache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestFailoverDropsToFallback(t *testing.T) {
	cache, _, fallback := newFailoverFixture(true)
	ctx := context.Background()

	// Write fails over to memory.
	require.NoError(t, cache.SetSchedule(ctx, "pro-1", sampleEvents()))

	_, ok, err := fallback.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Reads keep working through the fallback.
	got, ok, err := cache.GetSchedule(ctx, "pro-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 1)
}

func TestFailoverInvalidatesBothSides(t *testing.T) {
	cache, primary, fallback := newFailoverFixture(false)
	ctx := context.Background()

	require.NoError(t, primary.MemoryScheduleCache.SetSchedule(ctx, "pro-1", sampleEvents()))
	require.NoError(t, fallback.SetSchedule(ctx, "pro-1", sampleEvents()))

	require.NoError(t, cache.InvalidateSchedule(ctx, "pro-1"))

	_, ok, _ := primary.MemoryScheduleCache.GetSchedule(ctx, "pro-1")
	assert.False(t, ok)
	_, ok, _ = fallback.GetSchedule(ctx, "pro-1")
	assert.False(t, ok)
}

func TestFailoverRateLimit(t *testing.T) {
	cache, _, _ := newFailoverFixture(true)
	ctx := context.Background()

	// Rate limiting still enforced on the fallback path.
	allowed, err := cache.CheckRateLimit(ctx, "client-1", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = cache.CheckRateLimit(ctx, "client-1", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

package repository

import (
	"context"
	"sync"
	"time"

	"zolver/internal/models"
)

// MemoryScheduleCache is the in-process fallback cache.
type MemoryScheduleCache struct {
	schedules  sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

type scheduleEntry struct {
	events    []models.CalendarEvent
	expiresAt time.Time
}

func NewMemoryScheduleCache(ttl time.Duration) *MemoryScheduleCache {
	return &MemoryScheduleCache{
		ttl: ttl,
	}
}

func (r *MemoryScheduleCache) GetSchedule(ctx context.Context, professionalID string) ([]models.CalendarEvent, bool, error) {
	val, ok := r.schedules.Load(professionalID)
	if !ok {
		return nil, false, nil
	}
	entry := val.(*scheduleEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.schedules.Delete(professionalID)
		return nil, false, nil
	}
	return entry.events, true, nil
}

func (r *MemoryScheduleCache) SetSchedule(ctx context.Context, professionalID string, events []models.CalendarEvent) error {
	r.schedules.Store(professionalID, &scheduleEntry{
		events:    events,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryScheduleCache) InvalidateSchedule(ctx context.Context, professionalID string) error {
	r.schedules.Delete(professionalID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryScheduleCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}

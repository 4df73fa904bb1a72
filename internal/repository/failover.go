package repository

import (
	"context"
	"sync/atomic"
	"time"

	"zolver/internal/domain"
	"zolver/internal/models"

	"github.com/rs/zerolog"
)

// FailoverScheduleCache serves from the primary (Redis) cache and drops
// to the in-memory fallback when the primary errors, retrying the
// primary after a cooldown.
type FailoverScheduleCache struct {
	primary   domain.ScheduleCache
	fallback  domain.ScheduleCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverScheduleCache(primary, fallback domain.ScheduleCache, logger *zerolog.Logger) *FailoverScheduleCache {
	return &FailoverScheduleCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverScheduleCache) GetSchedule(ctx context.Context, professionalID string) ([]models.CalendarEvent, bool, error) {
	if !r.isDown.Load() {
		events, ok, err := r.primary.GetSchedule(ctx, professionalID)
		if err == nil {
			return events, ok, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		events, ok, err := r.primary.GetSchedule(ctx, professionalID)
		if err == nil {
			r.isDown.Store(false)
			return events, ok, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetSchedule(ctx, professionalID)
}

func (r *FailoverScheduleCache) SetSchedule(ctx context.Context, professionalID string, events []models.CalendarEvent) error {
	if !r.isDown.Load() {
		err := r.primary.SetSchedule(ctx, professionalID, events)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSchedule(ctx, professionalID, events)
}

func (r *FailoverScheduleCache) InvalidateSchedule(ctx context.Context, professionalID string) error {
	// Invalidation goes to both sides so a recovered primary cannot
	// serve a schedule the fallback already dropped.
	var primaryErr error
	if !r.isDown.Load() {
		primaryErr = r.primary.InvalidateSchedule(ctx, professionalID)
		if primaryErr != nil {
			r.markDown(primaryErr)
		}
	}

	if err := r.fallback.InvalidateSchedule(ctx, professionalID); err != nil {
		return err
	}
	return primaryErr
}

func (r *FailoverScheduleCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverScheduleCache) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary schedule cache failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

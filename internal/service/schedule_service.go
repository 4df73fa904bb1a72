package service

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"zolver/internal/domain"
	"zolver/internal/events"
	"zolver/internal/models"
	"zolver/internal/schedule"

	"github.com/rs/zerolog"
)

// ScheduleService owns the calendar read path: projection of a
// professional's appointment set into grid events, the per-professional
// cache in front of it, and live watch subscriptions. It never mutates.
type ScheduleService struct {
	repo   domain.AppointmentRepository
	cache  domain.ScheduleCache
	bus    *events.EventBus
	logger *zerolog.Logger
}

func NewScheduleService(repo domain.AppointmentRepository, cache domain.ScheduleCache, bus *events.EventBus, logger *zerolog.Logger) *ScheduleService {
	s := &ScheduleService{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		logger: logger,
	}
	if bus != nil {
		for _, eventType := range watchedEvents {
			bus.Subscribe(eventType, s.invalidateOnEvent)
		}
	}
	return s
}

var watchedEvents = []string{
	events.EventAppointmentCreated,
	events.EventAppointmentCancelled,
	events.EventAppointmentCompleted,
	events.EventAppointmentDeleted,
}

// GetSchedule returns the projected calendar events for a professional.
// Cache hits skip the store; every mutation invalidates through the bus.
func (s *ScheduleService) GetSchedule(ctx context.Context, professionalID string) ([]models.CalendarEvent, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.GetSchedule(ctx, professionalID); err == nil && ok {
			return cached, nil
		}
	}

	appointments, err := s.repo.ListForProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	projected := schedule.Project(appointments)

	if s.cache != nil {
		if err := s.cache.SetSchedule(ctx, professionalID, projected); err != nil {
			s.logger.Warn().Err(err).Str("professional_id", professionalID).Msg("schedule cache set failed")
		}
	}
	return projected, nil
}

// Subscription is a cancellable handle on a schedule watch.
type Subscription struct {
	cancelled atomic.Bool
}

// Cancel stops callback delivery. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancelled.Store(true)
}

// Watch invokes fn with the freshly projected schedule every time an
// appointment of the professional changes. fn runs on the publisher's
// goroutine; the returned handle stops delivery.
func (s *ScheduleService) Watch(ctx context.Context, professionalID string, fn func([]models.CalendarEvent)) *Subscription {
	sub := &Subscription{}
	if s.bus == nil {
		return sub
	}

	handler := func(event *events.Event) error {
		if sub.cancelled.Load() || ctx.Err() != nil {
			return nil
		}

		var payload events.AppointmentEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		if payload.ProfessionalID != professionalID {
			return nil
		}

		projected, err := s.GetSchedule(ctx, professionalID)
		if err != nil {
			s.logger.Warn().Err(err).Str("professional_id", professionalID).Msg("schedule watch refresh failed")
			return err
		}
		fn(projected)
		return nil
	}

	for _, eventType := range watchedEvents {
		s.bus.Subscribe(eventType, handler)
	}
	return sub
}

func (s *ScheduleService) invalidateOnEvent(event *events.Event) error {
	if s.cache == nil {
		return nil
	}

	var payload events.AppointmentEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	if payload.ProfessionalID == "" {
		return nil
	}
	return s.cache.InvalidateSchedule(context.Background(), payload.ProfessionalID)
}

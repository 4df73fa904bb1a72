package domain

import (
	"context"
	"time"

	"zolver/internal/models"
)

// AppointmentRepository is the persistence surface the scheduling core
// depends on: CRUD plus the professional-scoped equality query and the
// transactional guarded create.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	CreateAppointmentWithGuard(ctx context.Context, a *models.Appointment) error
	CheckAvailability(ctx context.Context, professionalID string, start, end time.Time, excludeID string) (bool, error)
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string) error
	UpdateAppointmentStatusWithVersion(ctx context.Context, id string, version int64, status string) error
	DeleteAppointment(ctx context.Context, id string) error
	ListForProfessional(ctx context.Context, professionalID string) ([]*models.Appointment, error)
	ListForProfessionalInRange(ctx context.Context, professionalID string, start, end time.Time) ([]*models.Appointment, error)
}

// ScheduleCache keeps projected schedules hot for the calendar read path.
// Availability checks never consult it.
type ScheduleCache interface {
	GetSchedule(ctx context.Context, professionalID string) ([]models.CalendarEvent, bool, error)
	SetSchedule(ctx context.Context, professionalID string, events []models.CalendarEvent) error
	InvalidateSchedule(ctx context.Context, professionalID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker mirrors appointment mutations into the admin spreadsheet.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, appointmentID string, appointment *models.Appointment, status string) error
}

// Notifier delivers user-facing notifications. Delivery itself is an
// external collaborator; the core only emits through this interface.
type Notifier interface {
	NotifyAppointment(ctx context.Context, eventType string, a *models.Appointment) error
}

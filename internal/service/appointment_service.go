package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zolver/internal/config"
	"zolver/internal/database"
	"zolver/internal/domain"
	"zolver/internal/events"
	"zolver/internal/metrics"
	"zolver/internal/models"
	"zolver/internal/schedule"

	"github.com/rs/zerolog"
)

var (
	// ErrInvalidTransition rejects status changes outside the lifecycle
	// table: scheduled -> cancelled and scheduled -> completed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrValidation marks input rejected before any I/O.
	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable marks a store round trip that hit its deadline.
	ErrStoreUnavailable = errors.New("scheduling store unavailable, try again")
)

// JobAddress is the structured address attached to a platform job.
type JobAddress struct {
	Street     string
	Number     string
	Complement string
	City       string
	State      string
}

// Display assembles the one-line location string shown on the calendar.
func (a JobAddress) Display() string {
	var parts []string
	street := strings.TrimSpace(a.Street)
	if a.Number != "" {
		street = strings.TrimSpace(street + ", " + a.Number)
	}
	if street != "" {
		parts = append(parts, street)
	}
	if a.Complement != "" {
		parts = append(parts, a.Complement)
	}
	cityState := strings.TrimSpace(a.City)
	if a.State != "" {
		if cityState != "" {
			cityState += " - " + a.State
		} else {
			cityState = a.State
		}
	}
	if cityState != "" {
		parts = append(parts, cityState)
	}
	return strings.Join(parts, ", ")
}

// CreateFromJobParams carries everything the job-acceptance flow knows
// about the engagement being scheduled.
type CreateFromJobParams struct {
	JobID          string
	ProfessionalID string
	ClientID       string
	ClientName     string
	ClientAvatar   string
	ServiceName    string
	Description    string
	ScheduledFor   string
	Address        *JobAddress
	Price          float64
}

// CreateExternalParams describes a manually declared outside engagement.
type CreateExternalParams struct {
	ProfessionalID string
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	Location       string
	Value          float64
}

// AppointmentService owns the appointment mutation path: creation from
// both origins, the status lifecycle, and deletion. Reads go through it
// as well so every store access gets the same deadline policy.
type AppointmentService struct {
	repo       domain.AppointmentRepository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	cfg        config.SchedulingConfig
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewAppointmentService(repo domain.AppointmentRepository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, cfg config.SchedulingConfig, logger *zerolog.Logger) *AppointmentService {
	if cfg.DefaultJobDuration <= 0 {
		cfg.DefaultJobDuration = models.DefaultJobDuration
	}
	if cfg.ASAPSentinel == "" {
		cfg.ASAPSentinel = models.ASAPSentinel
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = models.DefaultStoreTimeout
	}
	return &AppointmentService{
		repo:       repo,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *AppointmentService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateFromJob schedules the appointment generated by an accepted
// marketplace job. Start is "now" for the ASAP sentinel, otherwise the
// parsed instant; end is start plus the configured default duration.
// The overlap guard does not run here: the negotiation flow owns this
// schedule. A conflicting interval is logged so the asymmetry stays
// observable without blocking the job.
func (s *AppointmentService) CreateFromJob(ctx context.Context, p CreateFromJobParams) (*models.Appointment, error) {
	if p.ProfessionalID == "" {
		return nil, fmt.Errorf("%w: professional id is required", ErrValidation)
	}
	if p.JobID == "" {
		return nil, fmt.Errorf("%w: job id is required", ErrValidation)
	}
	if p.ServiceName == "" {
		return nil, fmt.Errorf("%w: service name is required", ErrValidation)
	}

	start, err := s.resolveStart(p.ScheduledFor)
	if err != nil {
		return nil, err
	}
	end := start.Add(s.cfg.DefaultJobDuration)

	var location string
	if p.Address != nil {
		location = p.Address.Display()
	}

	a := &models.Appointment{
		ProfessionalID: p.ProfessionalID,
		ClientID:       p.ClientID,
		JobID:          p.JobID,
		Title:          p.ServiceName + " - " + p.ClientName,
		Description:    p.Description,
		Start:          start,
		End:            end,
		Type:           models.TypePlatformJob,
		Location:       location,
		Value:          p.Price,
		ClientName:     p.ClientName,
		ClientAvatar:   p.ClientAvatar,
		Status:         models.StatusScheduled,
	}

	opCtx, cancel := s.boundCtx(ctx)
	defer cancel()

	if available, checkErr := s.repo.CheckAvailability(opCtx, p.ProfessionalID, start, end, ""); checkErr == nil && !available {
		s.logger.Warn().
			Str("job_id", p.JobID).
			Str("professional_id", p.ProfessionalID).
			Time("start", start).
			Time("end", end).
			Msg("job-origin appointment overlaps existing schedule")
	}

	if err := s.repo.CreateAppointment(opCtx, a); err != nil {
		return nil, s.mapStoreErr(err)
	}

	metrics.IncCreated(models.TypePlatformJob)
	s.publishEvent(events.EventAppointmentCreated, a)
	s.enqueueSync(ctx, a, "upsert")
	return a, nil
}

// CreateExternal declares an engagement outside the platform. The
// overlap check runs inside the store transaction together with the
// insert, so no caller can skip it and no concurrent create can slip
// past it.
func (s *AppointmentService) CreateExternal(ctx context.Context, p CreateExternalParams) (*models.Appointment, error) {
	if p.ProfessionalID == "" {
		return nil, fmt.Errorf("%w: professional id is required", ErrValidation)
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if _, err := schedule.NewInterval(p.Start, p.End); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	a := &models.Appointment{
		ProfessionalID: p.ProfessionalID,
		Title:          p.Title,
		Description:    p.Description,
		Start:          p.Start,
		End:            p.End,
		Type:           models.TypeExternalJob,
		Location:       p.Location,
		Value:          p.Value,
		Status:         models.StatusScheduled,
	}

	opCtx, cancel := s.boundCtx(ctx)
	defer cancel()

	if err := s.repo.CreateAppointmentWithGuard(opCtx, a); err != nil {
		if errors.Is(err, database.ErrNotAvailable) {
			metrics.IncConflict()
			return nil, err
		}
		return nil, s.mapStoreErr(err)
	}

	metrics.IncCreated(models.TypeExternalJob)
	s.publishEvent(events.EventAppointmentCreated, a)
	s.enqueueSync(ctx, a, "upsert")
	return a, nil
}

// IsAvailable reports whether [start, end) is free for the professional.
// A store failure fails closed: the slot is reported unavailable.
func (s *AppointmentService) IsAvailable(ctx context.Context, professionalID string, start, end time.Time, excludeID string) (bool, error) {
	if _, err := schedule.NewInterval(start, end); err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	opCtx, cancel := s.boundCtx(ctx)
	defer cancel()

	available, err := s.repo.CheckAvailability(opCtx, professionalID, start, end, excludeID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("professional_id", professionalID).
			Msg("availability check failed, reporting unavailable")
		return false, nil
	}
	return available, nil
}

// UpdateStatus applies one lifecycle transition with an optimistic
// version check. Cancelled and completed are terminal.
func (s *AppointmentService) UpdateStatus(ctx context.Context, id string, version int64, newStatus string) error {
	opCtx, cancel := s.boundCtx(ctx)
	defer cancel()

	current, err := s.repo.GetAppointment(opCtx, id)
	if err != nil {
		return s.mapStoreErr(err)
	}

	if !transitionAllowed(current.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
	}

	if err := s.repo.UpdateAppointmentStatusWithVersion(opCtx, id, version, newStatus); err != nil {
		return s.mapStoreErr(err)
	}

	updated := *current
	updated.Status = newStatus
	switch newStatus {
	case models.StatusCancelled:
		s.publishEvent(events.EventAppointmentCancelled, &updated)
	case models.StatusCompleted:
		s.publishEvent(events.EventAppointmentCompleted, &updated)
	}
	s.enqueueSync(ctx, &updated, "update_status")
	return nil
}

// Delete removes the appointment permanently. Allowed from any status.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	opCtx, cancel := s.boundCtx(ctx)
	defer cancel()

	a, err := s.repo.GetAppointment(opCtx, id)
	if err != nil {
		return s.mapStoreErr(err)
	}

	if err := s.repo.DeleteAppointment(opCtx, id); err != nil {
		return s.mapStoreErr(err)
	}

	s.publishEvent(events.EventAppointmentDeleted, a)
	s.enqueueSync(ctx, a, "delete")
	return nil
}

// ListForProfessional returns the professional's full set, newest-first.
func (s *AppointmentService) ListForProfessional(ctx context.Context, professionalID string) ([]*models.Appointment, error) {
	opCtx, cancel := s.boundCtx(ctx)
	defer cancel()

	list, err := s.repo.ListForProfessional(opCtx, professionalID)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return list, nil
}

// Get returns one appointment by id.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	opCtx, cancel := s.boundCtx(ctx)
	defer cancel()

	a, err := s.repo.GetAppointment(opCtx, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return a, nil
}

func transitionAllowed(from, to string) bool {
	if from != models.StatusScheduled {
		return false
	}
	return to == models.StatusCancelled || to == models.StatusCompleted
}

func (s *AppointmentService) resolveStart(scheduledFor string) (time.Time, error) {
	if strings.EqualFold(strings.TrimSpace(scheduledFor), s.cfg.ASAPSentinel) {
		return s.now(), nil
	}
	start, err := time.Parse(time.RFC3339, scheduledFor)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: scheduled_for must be %q or RFC3339", ErrValidation, s.cfg.ASAPSentinel)
	}
	return start, nil
}

func (s *AppointmentService) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *AppointmentService) mapStoreErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func (s *AppointmentService) publishEvent(eventType string, a *models.Appointment) {
	if s.eventBus == nil {
		return
	}

	payload := events.AppointmentEventPayload{
		AppointmentID:  a.ID,
		ProfessionalID: a.ProfessionalID,
		JobID:          a.JobID,
		Title:          a.Title,
		Type:           a.Type,
		Status:         a.Status,
		Start:          a.Start,
		End:            a.End,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("appointment_id", a.ID).Msg("publish event error")
	}
}

func (s *AppointmentService) enqueueSync(ctx context.Context, a *models.Appointment, taskType string) {
	if s.syncWorker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = a.Status
	}

	if err := s.syncWorker.EnqueueTask(ctx, taskType, a.ID, a, status); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", a.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}

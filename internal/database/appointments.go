package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"zolver/internal/models"

	"github.com/google/uuid"
)

const appointmentColumns = `id, professional_id, client_id, job_id, title, description,
        start_ns, end_ns, type, location, value, client_name, client_avatar,
        status, created_at_ns, updated_at_ns, version`

// CreateAppointment inserts without an availability guard. The job
// negotiation flow owns the schedule for platform-job appointments, so
// this path trusts its caller; external appointments go through
// CreateAppointmentWithGuard instead.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	prepareForInsert(a)

	_, err := db.ExecContext(ctx, insertAppointmentQuery, insertAppointmentArgs(a)...)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// CreateAppointmentWithGuard checks the half-open overlap predicate and
// inserts inside one transaction, so two racing creates cannot both pass
// the check. Returns ErrNotAvailable when the interval is taken.
func (db *DB) CreateAppointmentWithGuard(ctx context.Context, a *models.Appointment) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var overlapping int
	err = tx.QueryRowContext(ctx, overlapCountQuery,
		a.ProfessionalID,
		models.StatusCancelled, models.StatusCompleted,
		a.End.UnixNano(), a.Start.UnixNano(),
		"",
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("failed to check availability in tx: %w", err)
	}
	if overlapping > 0 {
		return ErrNotAvailable
	}

	prepareForInsert(a)
	if _, err := tx.ExecContext(ctx, insertAppointmentQuery, insertAppointmentArgs(a)...); err != nil {
		return fmt.Errorf("failed to insert appointment in tx: %w", err)
	}

	return tx.Commit()
}

// CheckAvailability reports whether [start, end) is free for the
// professional. Cancelled and completed appointments do not occupy;
// excludeID, when non-empty, skips one appointment for edit flows.
func (db *DB) CheckAvailability(ctx context.Context, professionalID string, start, end time.Time, excludeID string) (bool, error) {
	var overlapping int
	err := db.QueryRowContext(ctx, overlapCountQuery,
		professionalID,
		models.StatusCancelled, models.StatusCompleted,
		end.UnixNano(), start.UnixNano(),
		excludeID,
	).Scan(&overlapping)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return overlapping == 0, nil
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	a, err := scanAppointment(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

func (db *DB) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	query := `UPDATE appointments SET status = ?, updated_at_ns = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAppointmentStatusWithVersion applies an optimistic version check.
func (db *DB) UpdateAppointmentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE appointments SET status = ?, version = version + 1, updated_at_ns = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UnixNano(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, getErr := db.GetAppointment(ctx, id); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) DeleteAppointment(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForProfessional returns the professional's full appointment set,
// newest-first for deterministic ordering.
func (db *DB) ListForProfessional(ctx context.Context, professionalID string) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE professional_id = ?
              ORDER BY created_at_ns DESC, id DESC`
	rows, err := db.QueryContext(ctx, query, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// ListForProfessionalInRange returns appointments intersecting [start, end),
// ordered by start time. Feeds the Excel export and the Sheets mirror.
func (db *DB) ListForProfessionalInRange(ctx context.Context, professionalID string, start, end time.Time) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE professional_id = ? AND start_ns < ? AND end_ns > ?
              ORDER BY start_ns ASC, id ASC`
	rows, err := db.QueryContext(ctx, query, professionalID, end.UnixNano(), start.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments in range: %w", err)
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// Half-open overlap: existing.start < candidate.end AND existing.end > candidate.start.
const overlapCountQuery = `SELECT COUNT(*) FROM appointments
        WHERE professional_id = ?
        AND status NOT IN (?, ?)
        AND start_ns < ? AND end_ns > ?
        AND id != ?`

const insertAppointmentQuery = `INSERT INTO appointments (
            id, professional_id, client_id, job_id, title, description,
            start_ns, end_ns, type, location, value, client_name, client_avatar,
            status, created_at_ns, updated_at_ns, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func prepareForInsert(a *models.Appointment) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Version = 1
}

func insertAppointmentArgs(a *models.Appointment) []any {
	return []any{
		a.ID,
		a.ProfessionalID,
		a.ClientID,
		a.JobID,
		a.Title,
		a.Description,
		a.Start.UnixNano(),
		a.End.UnixNano(),
		a.Type,
		a.Location,
		a.Value,
		a.ClientName,
		a.ClientAvatar,
		a.Status,
		a.CreatedAt.UnixNano(),
		a.UpdatedAt.UnixNano(),
		a.Version,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var (
		a                                  models.Appointment
		startNS, endNS, createdNS, updatedNS int64
	)
	err := row.Scan(
		&a.ID, &a.ProfessionalID, &a.ClientID, &a.JobID, &a.Title, &a.Description,
		&startNS, &endNS, &a.Type, &a.Location, &a.Value, &a.ClientName, &a.ClientAvatar,
		&a.Status, &createdNS, &updatedNS, &a.Version,
	)
	if err != nil {
		return nil, err
	}
	a.Start = time.Unix(0, startNS).UTC()
	a.End = time.Unix(0, endNS).UTC()
	a.CreatedAt = time.Unix(0, createdNS).UTC()
	a.UpdatedAt = time.Unix(0, updatedNS).UTC()
	return &a, nil
}

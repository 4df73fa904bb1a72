package models

import "time"

// Appointment is a time-boxed calendar entry owned by exactly one
// professional. It occupies the half-open interval [Start, End).
type Appointment struct {
	ID             string    `json:"id"`
	ProfessionalID string    `json:"professional_id"`
	ClientID       string    `json:"client_id,omitempty"`
	JobID          string    `json:"job_id,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Type           string    `json:"type"` // platform_job, external_job
	Location       string    `json:"location,omitempty"`
	Value          float64   `json:"value,omitempty"`
	ClientName     string    `json:"client_name,omitempty"`
	ClientAvatar   string    `json:"client_avatar,omitempty"`
	Status         string    `json:"status"` // scheduled, cancelled, completed
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int64     `json:"version"`
}

// Occupies reports whether the appointment still blocks its time slot.
// Cancelled and completed appointments release the interval.
func (a *Appointment) Occupies() bool {
	return a.Status != StatusCancelled && a.Status != StatusCompleted
}

// CalendarEvent is the renderable projection of one appointment for the
// month/week/day grid. Source keeps the full record reachable for the
// detail view and the export encoders.
type CalendarEvent struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Start  time.Time    `json:"start"`
	End    time.Time    `json:"end"`
	Color  string       `json:"color"`
	Source *Appointment `json:"source"`
}

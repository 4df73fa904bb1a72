package models

import "time"

const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	TypePlatformJob = "platform_job"
	TypeExternalJob = "external_job"
)

// Calendar color tokens, fixed per appointment type.
const (
	ColorPlatformJob = "indigo"
	ColorExternalJob = "teal"
)

const (
	// DefaultJobDuration is the appointment length assumed for job-origin
	// appointments; jobs carry a start instant but no duration.
	DefaultJobDuration = 2 * time.Hour

	// ASAPSentinel marks a job scheduled for "as soon as possible".
	ASAPSentinel = "asap"

	// DefaultStoreTimeout bounds a single round trip to the store.
	DefaultStoreTimeout = 5 * time.Second

	// DefaultScheduleCacheTTL is how long a projected schedule stays
	// cached before the next read refetches.
	DefaultScheduleCacheTTL = 5 * time.Minute

	// ICalendarUIDDomain suffixes appointment ids in exported UIDs.
	ICalendarUIDDomain = "zolver.app"
)

const (
	// RateLimitRequests is the default per-key request budget per window.
	RateLimitRequests = 20

	// RateLimitWindow is the default rate-limit window in seconds.
	RateLimitWindow = 60

	// WorkerQueueSize is the in-memory sync queue capacity.
	WorkerQueueSize = 1000

	// DefaultExportRangeMonthsBefore and ...After bound the Excel export
	// window around the current month.
	DefaultExportRangeMonthsBefore = 1
	DefaultExportRangeMonthsAfter  = 2
)

// SyncTask is a queued mirror job for the Sheets worker.
type SyncTask struct {
	ID            int64      `json:"id"`
	TaskType      string     `json:"task_type"`
	AppointmentID string     `json:"appointment_id"`
	Payload       string     `json:"payload"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	LastError     *string    `json:"last_error"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at"`
	NextRetryAt   *time.Time `json:"next_retry_at"`
}

package database

import "errors"

var (
	// ErrNotFound means the appointment id does not exist in the store.
	ErrNotFound = errors.New("appointment not found")

	// ErrNotAvailable means the requested interval overlaps an occupying
	// appointment of the same professional.
	ErrNotAvailable = errors.New("time slot not available")

	// ErrConcurrentModification means a versioned update lost the race.
	ErrConcurrentModification = errors.New("appointment was modified concurrently")
)

package applications

import "errors"

var (
	// ErrNotFound indicates no application matches the lookup.
	ErrNotFound = errors.New("application not found")

	// ErrPersistence wraps failures of the backing store.
	ErrPersistence = errors.New("persistence error")

	// ErrTokenConflict is returned by Repo.Create when the track token is already taken.
	ErrTokenConflict = errors.New("track token conflict")

	// ErrInvalidInput indicates a record is missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStatusConflict means the status changed between read and update.
	ErrStatusConflict = errors.New("status changed concurrently")
)

package consultations

import "errors"

var (
	// ErrNotFound indicates the consultation does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("consultation not found")

	// ErrInvalidInput indicates a validation failure on caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadyRated means the consultation has a rating and cannot be
	// rated again.
	ErrAlreadyRated = errors.New("consultation already rated")

	// ErrNotCompleted means an operation requires a completed
	// consultation.
	ErrNotCompleted = errors.New("consultation not completed")
)

package analyses

import "errors"

var (
	// ErrNotFound indicates the analysis does not exist or is not
	// visible to the caller.
	ErrNotFound = errors.New("analysis not found")

	// ErrInvalidInput indicates a validation failure on caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTrialExhausted means an anonymous visitor has used up the free
	// analysis and must sign in to continue.
	ErrTrialExhausted = errors.New("free trial exhausted")
)

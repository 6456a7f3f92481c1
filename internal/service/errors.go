package service

import "errors"

// ErrNotFound signals that a referenced upload does not exist (unknown ID or
// the file is gone from disk).
var ErrNotFound = errors.New("image files not found")

// ValidationError describes a bad or missing upload. The HTTP boundary maps
// it to 400 / a flash message; the embedder is never invoked for one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError with the given user-facing reason.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

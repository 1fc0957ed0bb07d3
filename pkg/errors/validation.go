package errors

import (
	"errors"
	"fmt"
)

// ValidationError reports an option or input that failed validation. It
// carries the field name and the rejected value alongside the underlying
// cause.
type ValidationError struct {
	Value any    `json:"value"` // The rejected value.
	Field string `json:"field"` // The option or parameter that failed.
	Err   error  `json:"error"` // The underlying cause.
}

// NewValidationError creates a new ValidationError instance.
func NewValidationError(field string, value any, err error) *ValidationError {
	return &ValidationError{
		Err:   err,
		Field: field,
		Value: value,
	}
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: validation failed", e.Field)
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if a given error is of type ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError attempts to extract a ValidationError from a given
// error. It returns nil when the chain holds none.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

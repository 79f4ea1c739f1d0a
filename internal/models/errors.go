package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidComponent is returned when a component cannot be inserted.
	ErrInvalidComponent = errors.New("invalid component")
	// ErrNotFound is returned when a referenced node, component or wire does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when a property value is rejected.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a rejected field value.
type ValidationError struct {
	Field   string
	Value   any
	Reason  string
	Wrapped error
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if e.Wrapped == nil {
		return ErrValidation
	}
	return e.Wrapped
}

// NewValidationError creates a validation error wrapping ErrValidation
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Wrapped: ErrValidation}
}

package engine

import "go-circuit-lab/internal/models"

// Sentinel errors returned by the simulator. They are shared with the models
// package so that errors from parameter decoding compare equal.
var (
	ErrInvalidComponent = models.ErrInvalidComponent
	ErrNotFound         = models.ErrNotFound
	ErrValidation       = models.ErrValidation
)

// ValidationError describes a rejected field value
type ValidationError = models.ValidationError

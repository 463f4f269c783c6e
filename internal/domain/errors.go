// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidStatus is returned when a task status is not one of the known values.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidKind is returned when a plan item kind is neither exploitation nor exploration.
	ErrInvalidKind = errors.New("invalid plan item kind")

	// ErrEmptyFeedback is returned when submitted feedback text is blank.
	ErrEmptyFeedback = errors.New("feedback cannot be empty")
)

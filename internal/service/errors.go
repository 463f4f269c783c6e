package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
var (
	// ErrTaskNotFound indicates no task was registered under the requested id.
	// API layer should map this to HTTP 404 Not Found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrArtifactNotFound indicates the requested image does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrBusy indicates the pipeline is not accepting work, which only
	// happens while the process shuts down.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrBusy = errors.New("pipeline is not accepting work")

	// ErrInvalidInput indicates the request itself is unusable.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidInput = errors.New("invalid input")
)

// ServiceError wraps an unexpected failure with the service and operation
// that produced it.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError. Service sentinels are returned
// unwrapped so callers can compare them directly.
func NewServiceError(service, op string, err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case ErrTaskNotFound, ErrArtifactNotFound, ErrBusy, ErrInvalidInput:
		return err
	}
	return &ServiceError{Service: service, Op: op, Err: err}
}

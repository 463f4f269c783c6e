package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dnalab/design-evolution/internal/api/shared"
	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
	"github.com/dnalab/design-evolution/internal/service"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrArtifactNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyFeedback),
		errors.Is(err, generation.ErrEmptyAudio):
		return http.StatusBadRequest

	// Capacity and temporary upstream errors
	case errors.Is(err, service.ErrBusy),
		errors.Is(err, generation.ErrTransientUpstream):
		return http.StatusServiceUnavailable

	// The model refused the input
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity

	// Upstream answered but unusably
	case errors.Is(err, generation.ErrPermanentUpstream),
		errors.Is(err, generation.ErrInvalidResponse):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, service.ErrArtifactNotFound):
		return "Image not found"

	case errors.Is(err, domain.ErrEmptyFeedback):
		return "Feedback cannot be empty"

	case errors.Is(err, generation.ErrEmptyAudio):
		return "Audio cannot be empty"

	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request"

	case errors.Is(err, service.ErrBusy):
		return "The service is restarting, try again shortly"

	case errors.Is(err, generation.ErrTransientUpstream):
		return "The model is temporarily unavailable, try again shortly"

	case errors.Is(err, generation.ErrContentBlocked):
		return "The model declined this request"

	case errors.Is(err, generation.ErrPermanentUpstream),
		errors.Is(err, generation.ErrInvalidResponse):
		return "The model returned an unusable response"

	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. The status code and the
// client message are derived from the error type; fallbackMsg replaces the
// generic message for errors that map to 500. The full error is only logged,
// redacted.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMsg != "" {
		message = fallbackMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		first := validationErrs[0]
		if tag := first.Tag(); tag != "" {
			return fmt.Sprintf("Invalid %s: %s", first.Field(), getValidationTagMessage(tag))
		}
		return fmt.Sprintf("Invalid %s", first.Field())
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte", "lte":
		return "out of range"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

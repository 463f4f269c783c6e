package generation

import (
	"errors"

	"github.com/dnalab/design-evolution/internal/retry"
)

// Common errors returned by Gateway implementations
var (
	// ErrTransientUpstream is returned for temporary upstream overload that might resolve on retry
	ErrTransientUpstream = errors.New("transient upstream error: service unavailable")

	// ErrPermanentUpstream is returned for upstream failures that retrying will not fix
	ErrPermanentUpstream = errors.New("permanent upstream error")

	// ErrMalformedPlan is returned when the planning response fails structural validation
	ErrMalformedPlan = errors.New("malformed plan from planning model")

	// ErrInvalidResponse is returned when a non-planning response cannot be parsed
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrContentBlocked is returned when the model blocks the request due to safety filters
	ErrContentBlocked = errors.New("content blocked by model safety filters")

	// ErrInvalidConfig is returned when the gateway configuration is invalid
	ErrInvalidConfig = errors.New("invalid gateway configuration")

	// ErrEmptyAudio is returned when a transcription request carries no audio
	ErrEmptyAudio = errors.New("audio cannot be empty")
)

// IsTransient classifies gateway errors for the retrier. Errors explicitly
// marked permanent or malformed are never retried, even if their message
// happens to contain a transient marker.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermanentUpstream) ||
		errors.Is(err, ErrMalformedPlan) ||
		errors.Is(err, ErrContentBlocked) ||
		errors.Is(err, ErrInvalidResponse) {
		return false
	}
	return errors.Is(err, ErrTransientUpstream) || retry.IsTransient(err)
}

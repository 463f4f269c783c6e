package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/dnalab/design-evolution/internal/generation"
)

// Error definitions for the gemini package.
var (
	// ErrEmptyFeedback is returned when a planning request carries no feedback.
	ErrEmptyFeedback = errors.New("feedback text cannot be empty")

	// ErrEmptyPrompt is returned when a render request carries no prompt.
	ErrEmptyPrompt = errors.New("image prompt cannot be empty")
)

// transientStatuses are Google API status strings worth retrying
var transientStatuses = map[string]bool{
	"UNAVAILABLE":        true,
	"RESOURCE_EXHAUSTED": true,
	"DEADLINE_EXCEEDED":  true,
	"INTERNAL":           true,
}

// classifyError wraps an upstream error with ErrTransientUpstream or
// ErrPermanentUpstream so the caller's retrier can decide. Context errors
// pass through untouched.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code, status, ok := apiErrorDetails(err)
	if !ok {
		// Transport failures without an API envelope are retried.
		return fmt.Errorf("%w: %s: %v", generation.ErrTransientUpstream, op, err)
	}

	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusInternalServerError,
		code == http.StatusBadGateway,
		code == http.StatusServiceUnavailable,
		code == http.StatusGatewayTimeout,
		transientStatuses[status]:
		return fmt.Errorf("%w: %s: %v", generation.ErrTransientUpstream, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", generation.ErrPermanentUpstream, op, err)
	}
}

func apiErrorDetails(err error) (code int, status string, ok bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}
	return 0, "", false
}

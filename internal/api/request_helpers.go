package api

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dnalab/design-evolution/internal/api/shared"
	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/platform/logger"
)

// defaultAudioMIMEType is assumed when a transcription upload carries no
// usable Content-Type; browsers record webm/opus by default.
const defaultAudioMIMEType = "audio/webm"

// getPathParam extracts a required URL path parameter.
func getPathParam(r *http.Request, paramName string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, paramName))
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	return value, nil
}

// parseAndValidateRequest decodes the JSON body into req and validates it.
// On failure it writes a 400 response and returns false.
func parseAndValidateRequest(
	w http.ResponseWriter,
	r *http.Request,
	req interface{},
	validate *validator.Validate,
) bool {
	log := logger.FromContextOrDefault(r.Context(), slog.Default())

	if err := shared.DecodeJSON(r, req); err != nil {
		log.Debug("failed to decode request body", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}

	if err := validate.Struct(req); err != nil {
		log.Debug("request validation failed", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}

	return true
}

// audioMIMEType returns the media type of an upload without parameters,
// e.g. "audio/webm" for "audio/webm;codecs=opus".
func audioMIMEType(r *http.Request) string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType == "" || mediaType == "application/octet-stream" {
		return defaultAudioMIMEType
	}
	return mediaType
}

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dnalab/design-evolution/internal/api/shared"
	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/platform/logger"
	"github.com/dnalab/design-evolution/internal/service"
)

// MaxAudioBytes bounds a transcription upload.
const MaxAudioBytes = 20 << 20

// EvolutionHandler handles the feedback, status, image and transcription
// endpoints.
type EvolutionHandler struct {
	evolutionService service.EvolutionService
	validator        *validator.Validate
	logger           *slog.Logger
}

// NewEvolutionHandler creates a new EvolutionHandler
func NewEvolutionHandler(evolutionService service.EvolutionService, logger *slog.Logger) *EvolutionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvolutionHandler{
		evolutionService: evolutionService,
		validator:        validator.New(),
		logger:           logger.With("component", "evolution_handler"),
	}
}

// SubmitFeedback handles POST /api/feedback requests. It answers 202 with
// the new task id as soon as the task is queued.
func (h *EvolutionHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !parseAndValidateRequest(w, r, &req, h.validator) {
		return
	}

	var profile domain.Profile
	if req.State != nil {
		profile = *req.State
	}

	taskID, err := h.evolutionService.SubmitFeedback(r.Context(), profile, req.Feedback)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit feedback")
		return
	}

	w.Header().Set("Location", "/api/status/"+taskID)
	shared.RespondWithJSON(w, r, http.StatusAccepted, FeedbackResponse{TaskID: taskID})
}

// GetStatus handles GET /api/status/{taskID} requests
func (h *EvolutionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathParam(r, "taskID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.evolutionService.PollStatus(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, task)
}

// GetImage handles GET /api/images/{filename} requests
func (h *EvolutionHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	filename, err := getPathParam(r, "filename")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	art, err := h.evolutionService.FetchArtifact(r.Context(), filename)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load image")
		return
	}

	shared.RespondWithBytes(w, r, art.ContentType, art.Data)
}

// Transcribe handles POST /api/transcribe requests. The body is the raw
// audio clip and Content-Type its media type.
func (h *EvolutionHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	audio, err := shared.ReadBody(w, r, MaxAudioBytes)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge, "Audio clip is too large")
			return
		}
		log.Debug("failed to read audio body", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	transcript, err := h.evolutionService.Transcribe(r.Context(), audio, audioMIMEType(r))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to transcribe audio")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TranscriptResponse{
		Text:       transcript.Text,
		Language:   transcript.DetectedLanguage,
		Confidence: transcript.Confidence,
	})
}

// Health handles GET /health requests
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

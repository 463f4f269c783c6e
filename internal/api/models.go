package api

import (
	"github.com/dnalab/design-evolution/internal/domain"
)

// FeedbackRequest defines the payload for submitting feedback on a round.
type FeedbackRequest struct {
	// Feedback is the user's free-text reaction to the previous renders
	Feedback string `json:"feedback" validate:"required,max=8000"`

	// State is the profile returned by the previous round; omitted on the first round
	State *domain.Profile `json:"state"`
}

// FeedbackResponse is returned once a submission has been accepted.
type FeedbackResponse struct {
	TaskID string `json:"task_id"`
}

// TranscriptResponse is returned by the transcription endpoint.
type TranscriptResponse struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

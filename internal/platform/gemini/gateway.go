package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/dnalab/design-evolution/internal/config"
	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
)

// contentGenerator is the subset of the genai client used by the gateway.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Gateway implements generation.Gateway using the Gemini API.
type Gateway struct {
	models  contentGenerator
	prompts *prompts
	config  config.LLMConfig
	logger  *slog.Logger
}

var _ generation.Gateway = (*Gateway)(nil)

// NewGateway validates cfg, loads the prompt templates and connects a
// Gemini API client.
func NewGateway(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Gateway, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGateway(client.Models, logger, cfg)
}

// newGateway wires a gateway around any contentGenerator.
func newGateway(models contentGenerator, logger *slog.Logger, cfg config.LLMConfig) (*Gateway, error) {
	p, err := loadPrompts(cfg.PlanPromptPath)
	if err != nil {
		return nil, err
	}

	logger.Info("gemini gateway initialised",
		"planning_model", cfg.PlanningModel,
		"image_model", cfg.ImageModel,
		"transcribe_model", cfg.TranscribeModel,
		"custom_plan_prompt", cfg.PlanPromptPath != "")

	return &Gateway{
		models:  models,
		prompts: p,
		config:  cfg,
		logger:  logger.With("component", "gemini_gateway"),
	}, nil
}

// validateConfig checks the settings the gateway cannot run without.
func validateConfig(cfg config.LLMConfig) error {
	switch {
	case cfg.GeminiAPIKey == "":
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	case cfg.PlanningModel == "":
		return fmt.Errorf("%w: planning model cannot be empty", generation.ErrInvalidConfig)
	case cfg.ImageModel == "":
		return fmt.Errorf("%w: image model cannot be empty", generation.ErrInvalidConfig)
	case cfg.TranscribeModel == "":
		return fmt.Errorf("%w: transcription model cannot be empty", generation.ErrInvalidConfig)
	}
	return nil
}

// Plan asks the planning model for the next profile and plan.
func (g *Gateway) Plan(ctx context.Context, profile domain.Profile, feedback string) (domain.Plan, error) {
	if strings.TrimSpace(feedback) == "" {
		return domain.Plan{}, ErrEmptyFeedback
	}

	prompt, err := g.prompts.planPrompt(profile, feedback)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("%w: %v", generation.ErrPermanentUpstream, err)
	}

	g.logger.DebugContext(ctx, "requesting plan",
		"model", g.config.PlanningModel,
		"input_round", profile.Round,
		"prompt_length", len(prompt))

	resp, err := g.models.GenerateContent(ctx, g.config.PlanningModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   planSchema,
	})
	if err != nil {
		return domain.Plan{}, classifyError("plan", err)
	}

	text, err := responseText(resp)
	if err != nil {
		if errors.Is(err, generation.ErrInvalidResponse) {
			return domain.Plan{}, fmt.Errorf("%w: %v", generation.ErrMalformedPlan, err)
		}
		return domain.Plan{}, err
	}

	plan, err := generation.DecodePlan([]byte(text))
	if err != nil {
		g.logger.WarnContext(ctx, "planning model returned an unusable plan",
			"error", err,
			"response_length", len(text))
		return domain.Plan{}, err
	}

	exploitation, exploration := plan.CountKinds()
	g.logger.InfoContext(ctx, "plan generated",
		"items", len(plan.Items),
		"exploitation", exploitation,
		"exploration", exploration)
	return plan, nil
}

// RenderImage asks the image model for a single render.
func (g *Gateway) RenderImage(ctx context.Context, prompt string, dims generation.Dimensions) generation.RenderResult {
	if strings.TrimSpace(prompt) == "" {
		return generation.Failed(fmt.Errorf("%w: %w", generation.ErrPermanentUpstream, ErrEmptyPrompt))
	}

	full, err := g.prompts.imagePrompt(prompt, dims)
	if err != nil {
		return generation.Failed(fmt.Errorf("%w: %v", generation.ErrPermanentUpstream, err))
	}

	resp, err := g.models.GenerateContent(ctx, g.config.ImageModel, genai.Text(full), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return generation.Failed(classifyError("render", err))
	}

	result := responseImage(resp)
	g.logger.DebugContext(ctx, "render finished",
		"model", g.config.ImageModel,
		"outcome", result.Outcome.String(),
		"bytes", len(result.Data))
	return result
}

// Transcribe sends audio inline to the transcription model.
func (g *Gateway) Transcribe(ctx context.Context, audio []byte, mimeType string) (generation.Transcript, error) {
	if len(audio) == 0 {
		return generation.Transcript{}, generation.ErrEmptyAudio
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: g.prompts.transcribe},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
		},
	}}

	resp, err := g.models.GenerateContent(ctx, g.config.TranscribeModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   transcriptSchema,
	})
	if err != nil {
		return generation.Transcript{}, classifyError("transcribe", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return generation.Transcript{}, err
	}

	var transcript generation.Transcript
	if err := json.Unmarshal([]byte(text), &transcript); err != nil {
		return generation.Transcript{}, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	if err := generation.ValidateTranscript(transcript); err != nil {
		return generation.Transcript{}, err
	}

	g.logger.DebugContext(ctx, "audio transcribed",
		"audio_bytes", len(audio),
		"mime_type", mimeType,
		"language", transcript.DetectedLanguage)
	return transcript, nil
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/dnalab/design-evolution/internal/config"
	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
)

const validPlanJSON = `{
  "updated_state": {
    "round": 3,
    "design_summary": "**The Cyber-Minimalist**",
    "confirmed_likes": ["monolithic surfaces"],
    "hard_rejections": ["wings"],
    "exploration_history": []
  },
  "plan": [
    {"name": "delta_a", "prompt": "sharper wedge", "type": "exploitation"},
    {"name": "wild_b", "prompt": "teardrop cabin", "type": "Exploration"}
  ]
}`

// call records one GenerateContent request
type call struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeModels is a scripted contentGenerator
type fakeModels struct {
	mu    sync.Mutex
	calls []call
	resp  *genai.GenerateContentResponse
	err   error
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{model: model, contents: contents, config: cfg})
	return f.resp, f.err
}

func (f *fakeModels) lastCall(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: parts},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:    "test-key",
		PlanningModel:   "plan-model",
		ImageModel:      "image-model",
		TranscribeModel: "audio-model",
		ImageWidth:      1024,
		ImageHeight:     1024,
	}
}

func newTestGateway(t *testing.T, models *fakeModels, cfg config.LLMConfig) *Gateway {
	t.Helper()
	g, err := newGateway(models, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	require.NoError(t, err)
	return g
}

func promptText(c call) string {
	var out string
	for _, content := range c.contents {
		for _, part := range content.Parts {
			out += part.Text
		}
	}
	return out
}

func TestGateway_PlanSuccess(t *testing.T) {
	t.Parallel()

	models := &fakeModels{resp: textResponse(&genai.Part{Text: validPlanJSON})}
	g := newTestGateway(t, models, testConfig())

	profile := domain.Profile{Round: 2, ConfirmedLikes: []string{"light bar"}}
	plan, err := g.Plan(context.Background(), profile, "less chrome please")
	require.NoError(t, err)

	require.Len(t, plan.Items, 2)
	assert.Equal(t, domain.PlanKindExploration, plan.Items[1].Kind, "kind is normalised to lower case")
	assert.Equal(t, 3, plan.UpdatedProfile.Round)
	assert.Equal(t, []string{"wings"}, plan.UpdatedProfile.HardRejections)

	c := models.lastCall(t)
	assert.Equal(t, "plan-model", c.model)
	assert.Equal(t, "application/json", c.config.ResponseMIMEType)
	assert.Same(t, planSchema, c.config.ResponseSchema)

	prompt := promptText(c)
	assert.Contains(t, prompt, "less chrome please")
	assert.Contains(t, prompt, `"light bar"`)
	assert.Contains(t, prompt, "Set round to 3")
}

func TestGateway_PlanFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		err     error
		wantErr error
	}{
		{
			name:    "invalid json",
			resp:    textResponse(&genai.Part{Text: "sorry, I cannot"}),
			wantErr: generation.ErrMalformedPlan,
		},
		{
			name:    "missing plan",
			resp:    textResponse(&genai.Part{Text: `{"updated_state": {"round": 1}}`}),
			wantErr: generation.ErrMalformedPlan,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: generation.ErrMalformedPlan,
		},
		{
			name: "safety block",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonSafety,
			}}},
			wantErr: generation.ErrContentBlocked,
		},
		{
			name:    "overloaded",
			err:     genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "The model is overloaded"},
			wantErr: generation.ErrTransientUpstream,
		},
		{
			name:    "rate limited",
			err:     genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"},
			wantErr: generation.ErrTransientUpstream,
		},
		{
			name:    "bad request",
			err:     genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "bad"},
			wantErr: generation.ErrPermanentUpstream,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			models := &fakeModels{resp: tc.resp, err: tc.err}
			g := newTestGateway(t, models, testConfig())

			_, err := g.Plan(context.Background(), domain.Profile{}, "feedback")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestGateway_PlanRejectsEmptyFeedback(t *testing.T) {
	t.Parallel()

	models := &fakeModels{}
	g := newTestGateway(t, models, testConfig())

	_, err := g.Plan(context.Background(), domain.Profile{}, "  ")
	assert.ErrorIs(t, err, ErrEmptyFeedback)
	assert.Empty(t, models.calls)
}

func TestGateway_RenderImage(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\n")

	t.Run("inline image", func(t *testing.T) {
		models := &fakeModels{resp: textResponse(
			&genai.Part{Text: "here you go"},
			&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: png}},
		)}
		g := newTestGateway(t, models, testConfig())

		result := g.RenderImage(context.Background(), "sharper wedge", generation.Dimensions{Width: 1920, Height: 1080})
		assert.Equal(t, generation.RenderRendered, result.Outcome)
		assert.Equal(t, png, result.Data)
		assert.Equal(t, "image/png", result.MIMEType)

		c := models.lastCall(t)
		assert.Equal(t, "image-model", c.model)
		assert.Equal(t, []string{"IMAGE"}, c.config.ResponseModalities)
		prompt := promptText(c)
		assert.Contains(t, prompt, "unbranded concept car")
		assert.Contains(t, prompt, "Aspect ratio 16:9")
		assert.Contains(t, prompt, "Design: sharper wedge")
	})

	t.Run("text only is absent", func(t *testing.T) {
		models := &fakeModels{resp: textResponse(&genai.Part{Text: "I would rather describe it"})}
		g := newTestGateway(t, models, testConfig())

		result := g.RenderImage(context.Background(), "prompt", generation.Dimensions{})
		assert.Equal(t, generation.RenderAbsent, result.Outcome)
		assert.NoError(t, result.Err)
	})

	t.Run("upstream failure", func(t *testing.T) {
		models := &fakeModels{err: genai.APIError{Code: 503, Status: "UNAVAILABLE"}}
		g := newTestGateway(t, models, testConfig())

		result := g.RenderImage(context.Background(), "prompt", generation.Dimensions{})
		assert.Equal(t, generation.RenderFailed, result.Outcome)
		assert.True(t, generation.IsTransient(result.Err))
	})

	t.Run("empty prompt", func(t *testing.T) {
		models := &fakeModels{}
		g := newTestGateway(t, models, testConfig())

		result := g.RenderImage(context.Background(), "", generation.Dimensions{})
		assert.Equal(t, generation.RenderFailed, result.Outcome)
		assert.ErrorIs(t, result.Err, ErrEmptyPrompt)
		assert.False(t, generation.IsTransient(result.Err))
	})
}

func TestGateway_Transcribe(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		models := &fakeModels{resp: textResponse(
			&genai.Part{Text: "considering the request", Thought: true},
			&genai.Part{Text: `{"text": "make the roof lower", "language": "en", "confidence": 0.93}`},
		)}
		g := newTestGateway(t, models, testConfig())

		tr, err := g.Transcribe(context.Background(), []byte("OggS"), "audio/ogg")
		require.NoError(t, err)
		assert.Equal(t, "make the roof lower", tr.Text)
		assert.Equal(t, "en", tr.DetectedLanguage)
		assert.InDelta(t, 0.93, tr.Confidence, 1e-9)

		c := models.lastCall(t)
		assert.Equal(t, "audio-model", c.model)
		require.Len(t, c.contents, 1)
		require.Len(t, c.contents[0].Parts, 2)
		assert.Equal(t, "audio/ogg", c.contents[0].Parts[1].InlineData.MIMEType)
	})

	t.Run("invalid json", func(t *testing.T) {
		models := &fakeModels{resp: textResponse(&genai.Part{Text: "make the roof lower"})}
		g := newTestGateway(t, models, testConfig())

		_, err := g.Transcribe(context.Background(), []byte("OggS"), "audio/ogg")
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("empty transcript", func(t *testing.T) {
		models := &fakeModels{resp: textResponse(&genai.Part{Text: `{"text": ""}`})}
		g := newTestGateway(t, models, testConfig())

		_, err := g.Transcribe(context.Background(), []byte("OggS"), "audio/ogg")
		assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	})

	t.Run("empty audio", func(t *testing.T) {
		g := newTestGateway(t, &fakeModels{}, testConfig())
		_, err := g.Transcribe(context.Background(), nil, "audio/ogg")
		assert.ErrorIs(t, err, generation.ErrEmptyAudio)
	})
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	mutations := map[string]func(*config.LLMConfig){
		"api key":          func(c *config.LLMConfig) { c.GeminiAPIKey = "" },
		"planning model":   func(c *config.LLMConfig) { c.PlanningModel = "" },
		"image model":      func(c *config.LLMConfig) { c.ImageModel = "" },
		"transcribe model": func(c *config.LLMConfig) { c.TranscribeModel = "" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			assert.ErrorIs(t, validateConfig(cfg), generation.ErrInvalidConfig)
		})
	}

	assert.NoError(t, validateConfig(testConfig()))
}

func TestPlanPromptOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plan.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("round {{ .NextRound }}: {{ .Feedback }}"), 0o600))

	cfg := testConfig()
	cfg.PlanPromptPath = path
	models := &fakeModels{resp: textResponse(&genai.Part{Text: validPlanJSON})}
	g := newTestGateway(t, models, cfg)

	_, err := g.Plan(context.Background(), domain.Profile{Round: 7}, "rounder")
	require.NoError(t, err)
	assert.Equal(t, "round 8: rounder", promptText(models.lastCall(t)))

	cfg.PlanPromptPath = filepath.Join(t.TempDir(), "missing.tmpl")
	_, err = newGateway(models, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, classifyError("op", nil))
	assert.Same(t, context.Canceled, classifyError("op", context.Canceled))

	wrapped := fmt.Errorf("transport: %w", &genai.APIError{Code: 502})
	assert.ErrorIs(t, classifyError("op", wrapped), generation.ErrTransientUpstream)

	network := errors.New("connection reset by peer")
	assert.ErrorIs(t, classifyError("op", network), generation.ErrTransientUpstream)

	forbidden := genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}
	err := classifyError("op", forbidden)
	assert.ErrorIs(t, err, generation.ErrPermanentUpstream)
	assert.False(t, generation.IsTransient(err))
}

package gemini

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Nominal split requested from the planning model. The model decides the
// final count; the pipeline renders whatever it returns.
const (
	exploitationSlots = 7
	explorationSlots  = 2
)

// planPromptData is passed to the planning template
type planPromptData struct {
	ProfileJSON  string
	Feedback     string
	NextRound    int
	ImageCount   int
	Exploitation int
	Exploration  int
}

// imagePromptData is passed to the image template
type imagePromptData struct {
	Prompt      string
	AspectRatio string
}

// prompts holds the parsed templates used by the gateway
type prompts struct {
	plan       *template.Template
	image      *template.Template
	transcribe string
}

// loadPrompts parses the embedded templates. planOverride, when non-empty,
// replaces the embedded planning template.
func loadPrompts(planOverride string) (*prompts, error) {
	tmpl, err := template.New("").Option("missingkey=error").ParseFS(promptFS, "prompts/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt templates: %v", generation.ErrInvalidConfig, err)
	}

	plan := tmpl.Lookup("plan.tmpl")
	if planOverride != "" {
		content, err := os.ReadFile(planOverride)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, planOverride, err)
		}
		plan, err = template.New("plan_override").Option("missingkey=error").Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
		}
	}

	transcribe, err := promptFS.ReadFile("prompts/transcribe.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidConfig, err)
	}

	return &prompts{
		plan:       plan,
		image:      tmpl.Lookup("image.tmpl"),
		transcribe: strings.TrimSpace(string(transcribe)),
	}, nil
}

// planPrompt renders the planning prompt for profile and feedback.
func (p *prompts) planPrompt(profile domain.Profile, feedback string) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}

	var b strings.Builder
	err = p.plan.Execute(&b, planPromptData{
		ProfileJSON:  string(profileJSON),
		Feedback:     feedback,
		NextRound:    profile.Round + 1,
		ImageCount:   exploitationSlots + explorationSlots,
		Exploitation: exploitationSlots,
		Exploration:  explorationSlots,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

// imagePrompt wraps a plan item prompt with the fixed studio setup.
func (p *prompts) imagePrompt(prompt string, dims generation.Dimensions) (string, error) {
	var b strings.Builder
	err := p.image.Execute(&b, imagePromptData{
		Prompt:      prompt,
		AspectRatio: dims.AspectRatio(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute image template: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

package gemini

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dnalab/design-evolution/internal/generation"
)

// firstCandidate returns the content of the first candidate, or an error
// describing why there is none.
func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Content, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return nil, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}
	return candidate.Content, nil
}

// responseText concatenates the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	content, err := firstCandidate(resp)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

// responseImage extracts the first inline image of the first candidate.
// A well-formed response without image data yields the Absent variant.
func responseImage(resp *genai.GenerateContentResponse) generation.RenderResult {
	content, err := firstCandidate(resp)
	if err != nil {
		return generation.Failed(err)
	}

	for _, part := range content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		return generation.Rendered(part.InlineData.Data, part.InlineData.MIMEType)
	}
	return generation.Absent()
}

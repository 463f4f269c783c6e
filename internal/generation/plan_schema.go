package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dnalab/design-evolution/internal/domain"
)

var validate = validator.New()

// planResponse is the wire shape the planning model is instructed to emit
type planResponse struct {
	UpdatedState *profileSchema   `json:"updated_state" validate:"required"`
	Plan         []planItemSchema `json:"plan" validate:"required,unique=Name,dive"`
}

// profileSchema mirrors domain.Profile with validation tags
type profileSchema struct {
	Round              int               `json:"round" validate:"gte=0"`
	DesignSummary      string            `json:"design_summary"`
	ConfirmedLikes     []string          `json:"confirmed_likes"`
	HardRejections     []string          `json:"hard_rejections"`
	ExplorationHistory []json.RawMessage `json:"exploration_history"`
}

// planItemSchema mirrors domain.PlanItem with validation tags
type planItemSchema struct {
	Name   string `json:"name" validate:"required"`
	Prompt string `json:"prompt" validate:"required"`
	Type   string `json:"type" validate:"required"`
}

// DecodePlan parses raw planning output into a validated domain.Plan. Any
// parse or validation failure wraps ErrMalformedPlan.
func DecodePlan(raw []byte) (domain.Plan, error) {
	raw = bytes.TrimSpace(stripCodeFence(raw))
	if len(raw) == 0 {
		return domain.Plan{}, fmt.Errorf("%w: empty response", ErrMalformedPlan)
	}

	var resp planResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.Plan{}, fmt.Errorf("%w: failed to parse JSON response: %v", ErrMalformedPlan, err)
	}

	for i := range resp.Plan {
		resp.Plan[i].Type = strings.ToLower(strings.TrimSpace(resp.Plan[i].Type))
	}

	if err := validate.Struct(resp); err != nil {
		return domain.Plan{}, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	return resp.toDomain()
}

func (r planResponse) toDomain() (domain.Plan, error) {
	plan := domain.Plan{
		UpdatedProfile: domain.Profile{
			Round:              r.UpdatedState.Round,
			Summary:            r.UpdatedState.DesignSummary,
			ConfirmedLikes:     r.UpdatedState.ConfirmedLikes,
			HardRejections:     r.UpdatedState.HardRejections,
			ExplorationHistory: r.UpdatedState.ExplorationHistory,
		},
		Items: make([]domain.PlanItem, 0, len(r.Plan)),
	}

	for i, item := range r.Plan {
		kind, err := domain.ParsePlanKind(item.Type)
		if err != nil {
			return domain.Plan{}, fmt.Errorf("%w: plan item %d: %v", ErrMalformedPlan, i, err)
		}
		plan.Items = append(plan.Items, domain.PlanItem{
			Name:   item.Name,
			Prompt: item.Prompt,
			Kind:   kind,
		})
	}

	return plan, nil
}

// stripCodeFence removes a surrounding ```json fence some models add even
// when asked for bare JSON.
func stripCodeFence(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(s)
}

// ValidateTranscript checks a decoded transcript.
func ValidateTranscript(t Transcript) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

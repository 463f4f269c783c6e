package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Profile is the accumulated, model-maintained summary of user preferences
// carried across rounds. The planning model supersedes it wholesale every
// round; only its shape is checked, never its internal consistency.
type Profile struct {
	Round              int               `json:"round"`
	Summary            string            `json:"design_summary"`
	ConfirmedLikes     []string          `json:"confirmed_likes"`
	HardRejections     []string          `json:"hard_rejections"`
	ExplorationHistory []json.RawMessage `json:"exploration_history"`
}

// Clone returns a deep copy so that published snapshots never share
// backing arrays with a profile that is still being edited.
func (p Profile) Clone() Profile {
	out := Profile{
		Round:   p.Round,
		Summary: p.Summary,
	}
	if p.ConfirmedLikes != nil {
		out.ConfirmedLikes = append([]string(nil), p.ConfirmedLikes...)
	}
	if p.HardRejections != nil {
		out.HardRejections = append([]string(nil), p.HardRejections...)
	}
	if p.ExplorationHistory != nil {
		out.ExplorationHistory = make([]json.RawMessage, len(p.ExplorationHistory))
		for i, rec := range p.ExplorationHistory {
			out.ExplorationHistory[i] = append(json.RawMessage(nil), rec...)
		}
	}
	return out
}

// PlanKind tags a plan item as refinement of known-good designs or deliberate novelty.
type PlanKind string

// Plan item kinds
const (
	PlanKindExploitation PlanKind = "exploitation"
	PlanKindExploration  PlanKind = "exploration"
)

// ParsePlanKind normalises a kind reported by the planning model.
func ParsePlanKind(s string) (PlanKind, error) {
	switch PlanKind(strings.ToLower(strings.TrimSpace(s))) {
	case PlanKindExploitation:
		return PlanKindExploitation, nil
	case PlanKindExploration:
		return PlanKindExploration, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// PlanItem is one proposed image-generation directive for the current round.
type PlanItem struct {
	Name   string   `json:"name"`
	Prompt string   `json:"prompt"`
	Kind   PlanKind `json:"type"`
}

// Plan is the validated output of the planning model: the superseding
// profile and the round's plan items in the order the model proposed them.
type Plan struct {
	UpdatedProfile Profile    `json:"updated_state"`
	Items          []PlanItem `json:"plan"`
}

// ImageResult is a successfully rendered plan item.
type ImageResult struct {
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Prompt string   `json:"prompt"`
	Kind   PlanKind `json:"type"`
}

// CountKinds reports how many items of each kind a plan contains.
func (p Plan) CountKinds() (exploitation, exploration int) {
	for _, item := range p.Items {
		switch item.Kind {
		case PlanKindExploitation:
			exploitation++
		case PlanKindExploration:
			exploration++
		}
	}
	return exploitation, exploration
}

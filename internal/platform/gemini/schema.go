package gemini

import "google.golang.org/genai"

// planSchema constrains the planning model to the shape DecodePlan accepts.
var planSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"updated_state": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"round":           {Type: genai.TypeInteger},
				"design_summary":  {Type: genai.TypeString},
				"confirmed_likes": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"hard_rejections": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
				"exploration_history": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"round", "design_summary", "confirmed_likes", "hard_rejections"},
		},
		"plan": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":   {Type: genai.TypeString},
					"prompt": {Type: genai.TypeString},
					"type":   {Type: genai.TypeString, Enum: []string{"exploitation", "exploration"}},
				},
				Required: []string{"name", "prompt", "type"},
			},
		},
	},
	Required: []string{"updated_state", "plan"},
}

// transcriptSchema matches generation.Transcript
var transcriptSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"text":       {Type: genai.TypeString},
		"language":   {Type: genai.TypeString},
		"confidence": {Type: genai.TypeNumber},
	},
	Required: []string{"text"},
}

package generation

import (
	"context"
	"strconv"

	"github.com/dnalab/design-evolution/internal/domain"
)

// Dimensions is the requested output size of a rendered image
type Dimensions struct {
	Width  int
	Height int
}

// AspectRatio returns the reduced width:height ratio, e.g. "16:9".
// Zero dimensions yield "1:1".
func (d Dimensions) AspectRatio() string {
	if d.Width <= 0 || d.Height <= 0 {
		return "1:1"
	}
	g := gcd(d.Width, d.Height)
	return strconv.Itoa(d.Width/g) + ":" + strconv.Itoa(d.Height/g)
}

// RenderOutcome tags the variant held by a RenderResult
type RenderOutcome int

// Render outcomes
const (
	// RenderRendered means image bytes were produced
	RenderRendered RenderOutcome = iota
	// RenderAbsent means the model answered without image content; this is a
	// valid outcome, not an error, and is never retried
	RenderAbsent
	// RenderFailed means the call itself failed
	RenderFailed
)

// String implements fmt.Stringer
func (o RenderOutcome) String() string {
	switch o {
	case RenderRendered:
		return "rendered"
	case RenderAbsent:
		return "absent"
	case RenderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RenderResult is the tagged result of a single image request:
// Rendered(bytes), Absent, or Failed(error).
type RenderResult struct {
	Outcome  RenderOutcome
	Data     []byte
	MIMEType string
	Err      error
}

// Rendered builds the successful variant.
func Rendered(data []byte, mimeType string) RenderResult {
	return RenderResult{Outcome: RenderRendered, Data: data, MIMEType: mimeType}
}

// Absent builds the no-image variant.
func Absent() RenderResult {
	return RenderResult{Outcome: RenderAbsent}
}

// Failed builds the error variant.
func Failed(err error) RenderResult {
	return RenderResult{Outcome: RenderFailed, Err: err}
}

// Transcript is the result of transcribing an audio clip
type Transcript struct {
	Text             string  `json:"text" validate:"required"`
	DetectedLanguage string  `json:"language"`
	Confidence       float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// Gateway defines the upstream model capabilities consumed by the pipeline.
// This interface serves as a boundary between the application core and
// external AI services, following the hexagonal architecture pattern.
// Implementations perform no caching, rate limiting or coalescing; callers
// wrap every call in the retrier.
type Gateway interface {
	// Plan sends the current profile and new feedback to the planning model
	// and returns the validated plan, or an error wrapping ErrMalformedPlan
	// if the output does not have the expected shape.
	Plan(ctx context.Context, profile domain.Profile, feedback string) (domain.Plan, error)

	// RenderImage requests a single image for prompt. A response without
	// image content yields the Absent variant rather than an error.
	RenderImage(ctx context.Context, prompt string, dims Dimensions) RenderResult

	// Transcribe converts an audio clip to text.
	Transcribe(ctx context.Context, audio []byte, mimeType string) (Transcript, error)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

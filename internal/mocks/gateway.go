package mocks

import (
	"context"
	"strconv"
	"sync"

	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
)

// MockGateway implements generation.Gateway for testing
type MockGateway struct {
	// PlanFn allows test cases to mock the Plan behavior
	PlanFn func(ctx context.Context, profile domain.Profile, feedback string) (domain.Plan, error)

	// RenderImageFn allows test cases to mock the RenderImage behavior
	RenderImageFn func(ctx context.Context, prompt string, dims generation.Dimensions) generation.RenderResult

	// TranscribeFn allows test cases to mock the Transcribe behavior
	TranscribeFn func(ctx context.Context, audio []byte, mimeType string) (generation.Transcript, error)

	// Default response values, used when the matching Fn is nil
	PlanResult       domain.Plan
	PlanErr          error
	Image            []byte
	ImageMIME        string
	TranscriptResult generation.Transcript
	TranscriptErr    error

	mu sync.Mutex

	// Call tracking for verification
	PlanCalls       int
	Feedbacks       []string
	RenderCalls     int
	Prompts         []string
	TranscribeCalls int
}

// Plan implements the generation.Gateway interface
func (m *MockGateway) Plan(ctx context.Context, profile domain.Profile, feedback string) (domain.Plan, error) {
	m.mu.Lock()
	m.PlanCalls++
	m.Feedbacks = append(m.Feedbacks, feedback)
	m.mu.Unlock()

	if m.PlanFn != nil {
		return m.PlanFn(ctx, profile, feedback)
	}
	return m.PlanResult, m.PlanErr
}

// RenderImage implements the generation.Gateway interface
func (m *MockGateway) RenderImage(ctx context.Context, prompt string, dims generation.Dimensions) generation.RenderResult {
	m.mu.Lock()
	m.RenderCalls++
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if m.RenderImageFn != nil {
		return m.RenderImageFn(ctx, prompt, dims)
	}
	if len(m.Image) == 0 {
		return generation.Absent()
	}
	return generation.Rendered(m.Image, m.ImageMIME)
}

// Transcribe implements the generation.Gateway interface
func (m *MockGateway) Transcribe(ctx context.Context, audio []byte, mimeType string) (generation.Transcript, error) {
	m.mu.Lock()
	m.TranscribeCalls++
	m.mu.Unlock()

	if m.TranscribeFn != nil {
		return m.TranscribeFn(ctx, audio, mimeType)
	}
	return m.TranscriptResult, m.TranscriptErr
}

// Counts returns the number of Plan, RenderImage and Transcribe calls.
func (m *MockGateway) Counts() (plan, render, transcribe int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PlanCalls, m.RenderCalls, m.TranscribeCalls
}

// NewMockGatewayWithPlan creates a MockGateway that returns plan and renders
// image for every item.
func NewMockGatewayWithPlan(plan domain.Plan, image []byte, mimeType string) *MockGateway {
	return &MockGateway{PlanResult: plan, Image: image, ImageMIME: mimeType}
}

// NewMockGatewayWithError creates a MockGateway whose Plan fails with err
func NewMockGatewayWithError(err error) *MockGateway {
	return &MockGateway{PlanErr: err}
}

// SamplePlan builds a plan with exploitation items followed by exploration
// items, named item-0, item-1, ...
func SamplePlan(exploitation, exploration int) domain.Plan {
	items := make([]domain.PlanItem, 0, exploitation+exploration)
	for i := 0; i < exploitation+exploration; i++ {
		kind := domain.PlanKindExploitation
		if i >= exploitation {
			kind = domain.PlanKindExploration
		}
		items = append(items, domain.PlanItem{
			Name:   "item-" + strconv.Itoa(i),
			Prompt: "prompt " + strconv.Itoa(i),
			Kind:   kind,
		})
	}
	return domain.Plan{
		UpdatedProfile: domain.Profile{
			Summary:        "The Cyber-Minimalist",
			ConfirmedLikes: []string{"monolithic surfaces"},
			HardRejections: []string{"wings"},
		},
		Items: items,
	}
}

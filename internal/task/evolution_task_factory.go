package task

import (
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
	"github.com/dnalab/design-evolution/internal/registry"
	"github.com/dnalab/design-evolution/internal/retry"
)

// DefaultRenderConcurrency bounds in-flight image requests across all tasks
const DefaultRenderConcurrency = 9

// PipelineConfig holds the tunables shared by every EvolutionTask
type PipelineConfig struct {
	// Dimensions is the requested size of every rendered image
	Dimensions generation.Dimensions

	// MaxArtifacts is the cache bound applied after each completed round;
	// zero disables cleanup
	MaxArtifacts int

	// RenderConcurrency bounds concurrent RenderImage calls process-wide
	RenderConcurrency int
}

// EvolutionTaskFactory creates EvolutionTask instances sharing one gateway,
// retrier, store and render semaphore.
type EvolutionTaskFactory struct {
	gateway     generation.Gateway
	retrier     *retry.Retrier
	store       ArtifactStore
	renderSlots *semaphore.Weighted
	cfg         PipelineConfig
	logger      *slog.Logger
}

// NewEvolutionTaskFactory validates the dependencies and creates a factory
func NewEvolutionTaskFactory(
	gateway generation.Gateway,
	retrier *retry.Retrier,
	store ArtifactStore,
	cfg PipelineConfig,
	logger *slog.Logger,
) (*EvolutionTaskFactory, error) {
	if gateway == nil {
		return nil, ErrNilGateway
	}
	if retrier == nil {
		return nil, ErrNilRetrier
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if cfg.RenderConcurrency <= 0 {
		cfg.RenderConcurrency = DefaultRenderConcurrency
	}

	return &EvolutionTaskFactory{
		gateway:     gateway,
		retrier:     retrier,
		store:       store,
		renderSlots: semaphore.NewWeighted(int64(cfg.RenderConcurrency)),
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// CreateTask creates a new EvolutionTask bound to handle
func (f *EvolutionTaskFactory) CreateTask(handle *registry.Handle, profile domain.Profile, feedback string) (Task, error) {
	if handle == nil {
		return nil, ErrNilHandle
	}
	return &EvolutionTask{
		handle:       handle,
		profile:      profile.Clone(),
		feedback:     feedback,
		gateway:      f.gateway,
		retrier:      f.retrier,
		store:        f.store,
		renderSlots:  f.renderSlots,
		dims:         f.cfg.Dimensions,
		maxArtifacts: f.cfg.MaxArtifacts,
		logger: f.logger.With(
			"component", "evolution_task",
			"task_type", TaskTypeEvolution,
			"task_id", handle.ID()),
	}, nil
}

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"golang.org/x/sync/semaphore"

	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
	"github.com/dnalab/design-evolution/internal/registry"
	"github.com/dnalab/design-evolution/internal/retry"
)

// Common errors
var (
	ErrNilGateway  = errors.New("gateway cannot be nil")
	ErrNilRetrier  = errors.New("retrier cannot be nil")
	ErrNilStore    = errors.New("artifact store cannot be nil")
	ErrNilLogger   = errors.New("logger cannot be nil")
	ErrNilHandle   = errors.New("registry handle cannot be nil")
	ErrTaskPanic   = errors.New("evolution task panicked")
	ErrTaskAborted = errors.New("evolution task aborted")
)

// ArtifactStore persists rendered images and bounds the cache size
type ArtifactStore interface {
	// Save writes data for one render slot and returns its public reference
	Save(ctx context.Context, taskID string, slot int, data []byte, mimeType string) (string, error)

	// Cleanup evicts the oldest artifacts until at most maxCount remain
	Cleanup(ctx context.Context, maxCount int) (int, error)
}

// EvolutionTask implements the Task interface for one feedback round. It
// owns the registry handle of its record and is the only writer to it.
type EvolutionTask struct {
	handle   *registry.Handle
	profile  domain.Profile
	feedback string

	gateway      generation.Gateway
	retrier      *retry.Retrier
	store        ArtifactStore
	renderSlots  *semaphore.Weighted
	dims         generation.Dimensions
	maxArtifacts int
	logger       *slog.Logger
}

// ID returns the task's unique identifier
func (t *EvolutionTask) ID() string {
	return t.handle.ID()
}

// Type returns the task type identifier
func (t *EvolutionTask) Type() string {
	return TaskTypeEvolution
}

// Execute drives the record through planning and rendering to a terminal
// state. The returned error mirrors what was published on the record.
func (t *EvolutionTask) Execute(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
			t.logger.Error("evolution task panicked", "panic", r)
			t.fail(ctx, domain.ErrorKindUnexpectedError, err)
		}
	}()

	t.logger.Info("starting evolution task", "input_round", t.profile.Round)

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("%w: %w", ErrTaskAborted, err)
		t.fail(ctx, domain.ErrorKindUnexpectedError, err)
		return err
	}

	if err := t.publish(ctx, func(task *domain.Task) {
		task.Status = domain.TaskStatusPlanning
	}); err != nil {
		return err
	}

	// 1. Plan the round
	plan, err := retry.Do(ctx, t.retrier, func(ctx context.Context) (domain.Plan, error) {
		return t.gateway.Plan(ctx, t.profile, t.feedback)
	})
	if err != nil {
		t.logger.Error("planning failed", "error", err)
		t.fail(ctx, domain.ErrorKindPlanningFailed, err)
		return fmt.Errorf("planning failed: %w", err)
	}

	exploitation, exploration := plan.CountKinds()
	t.logger.Info("plan received",
		"items", len(plan.Items),
		"exploitation", exploitation,
		"exploration", exploration)

	round := t.profile.Round + 1
	if err := t.publish(ctx, func(task *domain.Task) {
		task.Status = domain.TaskStatusRendering
		task.Round = round
		task.UpdatedProfile = plan.UpdatedProfile.Clone()
	}); err != nil {
		return err
	}

	// 2. Render every plan item concurrently
	images := t.renderAll(ctx, plan.Items)

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("%w during rendering: %w", ErrTaskAborted, err)
		t.fail(ctx, domain.ErrorKindUnexpectedError, err)
		return err
	}

	// 3. Finalize
	if err := t.publish(ctx, func(task *domain.Task) {
		task.Status = domain.TaskStatusCompleted
		task.Images = images
	}); err != nil {
		return err
	}
	t.logger.Info("evolution task completed",
		"round", round,
		"requested", len(plan.Items),
		"rendered", len(images))

	t.cleanup(ctx)
	return nil
}

// renderAll fans out one unit per plan item and joins them. The result
// keeps plan order and omits units that produced no image.
func (t *EvolutionTask) renderAll(ctx context.Context, items []domain.PlanItem) []domain.ImageResult {
	results := make([]*domain.ImageResult, len(items))

	var wg conc.WaitGroup
	for slot, item := range items {
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() {
				results[slot] = t.renderUnit(ctx, slot, item)
			})
			if r := pc.Recovered(); r != nil {
				t.logger.Error("render unit panicked",
					"slot", slot,
					"name", item.Name,
					"error", r.AsError())
			}
		})
	}
	wg.Wait()

	images := make([]domain.ImageResult, 0, len(items))
	for _, r := range results {
		if r != nil {
			images = append(images, *r)
		}
	}
	return images
}

// renderUnit renders and stores one plan item. Any failure is logged and
// yields nil; it never affects sibling units.
func (t *EvolutionTask) renderUnit(ctx context.Context, slot int, item domain.PlanItem) *domain.ImageResult {
	log := t.logger.With("slot", slot, "name", item.Name, "kind", item.Kind)

	if err := t.renderSlots.Acquire(ctx, 1); err != nil {
		log.Warn("render slot not acquired", "error", err)
		return nil
	}
	defer t.renderSlots.Release(1)

	result, err := retry.Do(ctx, t.retrier, func(ctx context.Context) (generation.RenderResult, error) {
		r := t.gateway.RenderImage(ctx, item.Prompt, t.dims)
		if r.Outcome == generation.RenderFailed {
			if r.Err == nil {
				r.Err = generation.ErrPermanentUpstream
			}
			return r, r.Err
		}
		return r, nil
	})
	if err != nil {
		log.Warn("render failed", "error", err)
		return nil
	}
	if result.Outcome == generation.RenderAbsent || len(result.Data) == 0 {
		log.Info("model returned no image")
		return nil
	}

	ref, err := t.store.Save(ctx, t.ID(), slot, result.Data, result.MIMEType)
	if err != nil {
		log.Error("failed to store artifact", "error", err)
		return nil
	}

	log.Debug("artifact stored", "url", ref, "bytes", len(result.Data))
	return &domain.ImageResult{
		Name:   item.Name,
		URL:    ref,
		Prompt: item.Prompt,
		Kind:   item.Kind,
	}
}

func (t *EvolutionTask) publish(ctx context.Context, mutate func(*domain.Task)) error {
	if _, err := t.handle.Update(ctx, mutate); err != nil {
		t.logger.Error("failed to publish task state", "error", err)
		return fmt.Errorf("failed to publish task state: %w", err)
	}
	return nil
}

// fail records err on the task. Publishing is detached from ctx so a
// cancelled pipeline still reaches a terminal state.
func (t *EvolutionTask) fail(ctx context.Context, kind domain.ErrorKind, err error) {
	_, uerr := t.handle.Update(context.WithoutCancel(ctx), func(task *domain.Task) {
		task.Status = domain.TaskStatusFailed
		task.Error = err.Error()
		task.ErrorKind = kind
	})
	if uerr != nil {
		t.logger.Error("failed to record task failure",
			"error", uerr,
			"original_error", err)
	}
}

// cleanup bounds the artifact cache. Failures are logged and never change
// the outcome of the task.
func (t *EvolutionTask) cleanup(ctx context.Context) {
	if t.maxArtifacts <= 0 {
		return
	}
	deleted, err := t.store.Cleanup(context.WithoutCancel(ctx), t.maxArtifacts)
	if err != nil {
		t.logger.Warn("artifact cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		t.logger.Info("evicted old artifacts", "deleted", deleted, "max_count", t.maxArtifacts)
	}
}

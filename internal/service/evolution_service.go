package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dnalab/design-evolution/internal/artifact"
	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/generation"
	"github.com/dnalab/design-evolution/internal/registry"
	"github.com/dnalab/design-evolution/internal/retry"
	"github.com/dnalab/design-evolution/internal/task"
)

const serviceName = "evolution"

// TaskFactory creates the background task for one submission
type TaskFactory interface {
	CreateTask(handle *registry.Handle, profile domain.Profile, feedback string) (task.Task, error)
}

// ArtifactResolver looks up stored images by reference
type ArtifactResolver interface {
	Resolve(ref string) (artifact.Artifact, error)
}

// Transcriber converts recorded audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (generation.Transcript, error)
}

// EvolutionService is the inbound boundary of the design evolution loop
type EvolutionService interface {
	// SubmitFeedback registers a new task for feedback against profile and
	// schedules it. It returns the task id without waiting on any model call.
	SubmitFeedback(ctx context.Context, profile domain.Profile, feedback string) (string, error)

	// PollStatus returns the latest snapshot of a task
	PollStatus(ctx context.Context, taskID string) (domain.Task, error)

	// FetchArtifact returns a stored image by file name or public path
	FetchArtifact(ctx context.Context, ref string) (artifact.Artifact, error)

	// Transcribe converts an audio clip to text, retrying transient failures
	Transcribe(ctx context.Context, audio []byte, mimeType string) (generation.Transcript, error)
}

// evolutionServiceImpl implements the EvolutionService interface
type evolutionServiceImpl struct {
	registry    *registry.Registry
	factory     TaskFactory
	queue       task.TaskQueueWriter
	artifacts   ArtifactResolver
	transcriber Transcriber
	retrier     *retry.Retrier
	logger      *slog.Logger
}

// NewEvolutionService creates a new EvolutionService.
// It returns an error if any of the required dependencies are nil.
func NewEvolutionService(
	reg *registry.Registry,
	factory TaskFactory,
	queue task.TaskQueueWriter,
	artifacts ArtifactResolver,
	transcriber Transcriber,
	retrier *retry.Retrier,
	logger *slog.Logger,
) (EvolutionService, error) {
	switch {
	case reg == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("registry cannot be nil")}
	case factory == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("task factory cannot be nil")}
	case queue == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("task queue cannot be nil")}
	case artifacts == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("artifact resolver cannot be nil")}
	case transcriber == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("transcriber cannot be nil")}
	case retrier == nil:
		return nil, &ServiceError{Service: serviceName, Op: "create_service", Err: errors.New("retrier cannot be nil")}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &evolutionServiceImpl{
		registry:    reg,
		factory:     factory,
		queue:       queue,
		artifacts:   artifacts,
		transcriber: transcriber,
		retrier:     retrier,
		logger:      logger.With("component", "evolution_service"),
	}, nil
}

// SubmitFeedback creates the task record synchronously, then hands the
// pipeline to the worker pool.
func (s *evolutionServiceImpl) SubmitFeedback(
	ctx context.Context,
	profile domain.Profile,
	feedback string,
) (string, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrEmptyFeedback)
	}

	taskID := uuid.NewString()
	log := s.logger.With("task_id", taskID, "round", profile.Round)

	handle, err := s.registry.Create(ctx, taskID, domain.NewTask(taskID, profile))
	if err != nil {
		log.ErrorContext(ctx, "failed to register task", "error", err)
		return "", NewServiceError(serviceName, "submit_feedback", err)
	}

	t, err := s.factory.CreateTask(handle, profile, feedback)
	if err != nil {
		s.reject(ctx, handle, err)
		log.ErrorContext(ctx, "failed to create evolution task", "error", err)
		return "", NewServiceError(serviceName, "submit_feedback", err)
	}

	if err := s.queue.Enqueue(t); err != nil {
		s.reject(ctx, handle, err)
		log.WarnContext(ctx, "failed to enqueue evolution task", "error", err)
		if errors.Is(err, task.ErrQueueClosed) {
			return "", fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return "", NewServiceError(serviceName, "submit_feedback", err)
	}

	log.InfoContext(ctx, "feedback accepted", "feedback_length", len(feedback))
	return taskID, nil
}

// reject marks a record that will never run as failed so pollers do not
// wait on it forever.
func (s *evolutionServiceImpl) reject(ctx context.Context, handle *registry.Handle, cause error) {
	_, err := handle.Update(ctx, func(t *domain.Task) {
		t.Status = domain.TaskStatusFailed
		t.Error = cause.Error()
		t.ErrorKind = domain.ErrorKindUnexpectedError
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mark rejected task as failed",
			"task_id", handle.ID(),
			"error", err)
	}
}

// PollStatus returns the latest snapshot of a task
func (s *evolutionServiceImpl) PollStatus(ctx context.Context, taskID string) (domain.Task, error) {
	snap, err := s.registry.Get(taskID)
	if err != nil {
		if errors.Is(err, registry.ErrTaskNotFound) {
			return domain.Task{}, ErrTaskNotFound
		}
		s.logger.ErrorContext(ctx, "failed to read task status", "task_id", taskID, "error", err)
		return domain.Task{}, NewServiceError(serviceName, "poll_status", err)
	}
	return snap, nil
}

// FetchArtifact returns a stored image by file name or public path
func (s *evolutionServiceImpl) FetchArtifact(ctx context.Context, ref string) (artifact.Artifact, error) {
	art, err := s.artifacts.Resolve(ref)
	if err != nil {
		switch {
		case errors.Is(err, artifact.ErrNotFound), errors.Is(err, artifact.ErrInvalidReference):
			s.logger.DebugContext(ctx, "artifact not found", "ref", ref, "error", err)
			return artifact.Artifact{}, ErrArtifactNotFound
		default:
			s.logger.ErrorContext(ctx, "failed to read artifact", "ref", ref, "error", err)
			return artifact.Artifact{}, NewServiceError(serviceName, "fetch_artifact", err)
		}
	}
	return art, nil
}

// Transcribe converts an audio clip to text, retrying transient failures
func (s *evolutionServiceImpl) Transcribe(
	ctx context.Context,
	audio []byte,
	mimeType string,
) (generation.Transcript, error) {
	if len(audio) == 0 {
		return generation.Transcript{}, fmt.Errorf("%w: %w", ErrInvalidInput, generation.ErrEmptyAudio)
	}

	transcript, err := retry.Do(ctx, s.retrier, func(ctx context.Context) (generation.Transcript, error) {
		return s.transcriber.Transcribe(ctx, audio, mimeType)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "transcription failed",
			"mime_type", mimeType,
			"audio_bytes", len(audio),
			"error", err)
		return generation.Transcript{}, NewServiceError(serviceName, "transcribe", err)
	}

	s.logger.InfoContext(ctx, "audio transcribed",
		"language", transcript.DetectedLanguage,
		"characters", len(transcript.Text))
	return transcript, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dnalab/design-evolution/internal/artifact"
	"github.com/dnalab/design-evolution/internal/config"
	"github.com/dnalab/design-evolution/internal/events"
	"github.com/dnalab/design-evolution/internal/generation"
	"github.com/dnalab/design-evolution/internal/platform/gemini"
	"github.com/dnalab/design-evolution/internal/registry"
	"github.com/dnalab/design-evolution/internal/retry"
	"github.com/dnalab/design-evolution/internal/service"
	"github.com/dnalab/design-evolution/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Event system
	eventEmitter  *events.InMemoryEventEmitter
	subscriptions *events.Subscriptions

	registry  *registry.Registry
	artifacts *artifact.Store
	gateway   generation.Gateway

	// Task handling
	taskQueue  *task.TaskQueue
	workerPool *task.WorkerPool

	evolutionService service.EvolutionService
}

// newApplication creates an application backed by the Gemini gateway.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	gateway, err := gemini.NewGateway(ctx, logger.With("component", "gemini_gateway"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini gateway: %w", err)
	}
	logger.Info("Gemini gateway initialized",
		"planning_model", cfg.LLM.PlanningModel,
		"image_model", cfg.LLM.ImageModel)

	return newApplicationWithGateway(cfg, logger, gateway)
}

// newApplicationWithGateway wires every component around gateway and
// starts the worker pool.
func newApplicationWithGateway(cfg *config.Config, logger *slog.Logger, gateway generation.Gateway) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		gateway: gateway,
	}

	// Task snapshots flow registry -> emitter -> websocket subscriptions
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.subscriptions = events.NewSubscriptions(logger)
	app.eventEmitter.RegisterHandler(app.subscriptions)

	app.registry = registry.New(app.eventEmitter, logger)

	var err error
	app.artifacts, err = artifact.NewDiskStore(cfg.Artifacts.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	retrier := retry.New(
		retry.Config{MaxAttempts: cfg.Retry.MaxAttempts, InitialDelay: cfg.Retry.InitialDelay},
		logger,
		retry.WithClassifier(generation.IsTransient),
	)

	factory, err := task.NewEvolutionTaskFactory(gateway, retrier, app.artifacts, task.PipelineConfig{
		Dimensions:        generation.Dimensions{Width: cfg.LLM.ImageWidth, Height: cfg.LLM.ImageHeight},
		MaxArtifacts:      cfg.Artifacts.MaxCount,
		RenderConcurrency: cfg.Task.RenderConcurrency,
	}, logger.With("component", "evolution_task"))
	if err != nil {
		return nil, fmt.Errorf("failed to create task factory: %w", err)
	}

	app.taskQueue = task.NewTaskQueue(logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, logger)

	app.evolutionService, err = service.NewEvolutionService(
		app.registry,
		factory,
		app.taskQueue,
		app.artifacts,
		gateway,
		retrier,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create evolution service: %w", err)
	}

	app.workerPool.Start()

	logger.Info("Application initialized successfully",
		"render_concurrency", cfg.Task.RenderConcurrency)
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops accepting work and cancels tasks still in flight. Their
// records end failed with the cancellation error.
func (app *application) cleanup() {
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}

	app.logger.Info("Application shutdown completed")
}

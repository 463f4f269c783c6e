package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// WorkerPool starts every task it receives from a queue in its own
// goroutine, so an accepted task never waits behind another. Throttling,
// where needed, belongs to the tasks themselves.
type WorkerPool struct {
	// taskQueue provides read access to the tasks to be processed
	taskQueue TaskQueueReader

	// dispatcher tracks the goroutine reading from the queue
	dispatcher sync.WaitGroup

	// running tracks task goroutines for clean shutdown
	running conc.WaitGroup

	// ctx is passed to every task and cancelled by Stop
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)

	startOnce sync.Once
}

// NewWorkerPool creates a pool reading from taskQueue
func NewWorkerPool(taskQueue TaskQueueReader, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue: taskQueue,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger.With("component", "worker_pool"),
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the dispatcher. Calls after the first are no-ops.
func (p *WorkerPool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool")
		p.dispatcher.Add(1)
		go p.dispatch()
	})
}

// Stop cancels the pool context, which also cancels tasks in flight, and
// waits for the dispatcher and every running task to return.
func (p *WorkerPool) Stop() {
	p.logger.Info("stopping worker pool")
	p.cancel()
	p.dispatcher.Wait()
	p.running.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) dispatch() {
	defer p.dispatcher.Done()

	tasks := p.taskQueue.GetChannel()
	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("dispatcher exiting, context cancelled")
			return
		case t, ok := <-tasks:
			if !ok {
				p.logger.Debug("dispatcher exiting, queue closed")
				return
			}
			p.running.Go(func() { p.processTask(t) })
		}
	}
}

// processTask runs a single task, converting a panic into an error so one
// misbehaving task cannot take the process down.
func (p *WorkerPool) processTask(t Task) {
	log := p.logger.With("task_id", t.ID(), "task_type", t.Type())
	start := time.Now()
	log.Info("processing task")

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return t.Execute(p.ctx)
	}()

	if err != nil {
		log.Error("task failed", "error", err, "duration", time.Since(start))
		if p.errorHandler != nil {
			p.errorHandler(t, err)
		}
		return
	}
	log.Info("task completed", "duration", time.Since(start))
}

// Package registry holds the process-wide mapping from task id to the latest
// published Task snapshot. It is constructed once at startup and handed to
// both the submission path and the pipelines; nothing here is persisted.
//
// Only the Handle returned by Create can change an entry, which restricts
// mutation to the single pipeline that owns the task. Every change is
// published as a new immutable snapshot through an atomic pointer, so
// pollers never observe a partially written Task.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnalab/design-evolution/internal/domain"
)

// Common errors returned by the Registry
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskExists   = errors.New("task already exists")
	ErrTaskTerminal = errors.New("task already reached a terminal state")
	ErrEmptyTaskID  = errors.New("task ID cannot be empty")
)

// Publisher is notified of every snapshot published to the registry.
type Publisher interface {
	PublishTask(ctx context.Context, task domain.Task)
}

// entry holds the current snapshot of one task
type entry struct {
	current atomic.Pointer[domain.Task]
}

// Registry is the in-memory task status registry
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	publisher Publisher
	logger    *slog.Logger
}

// New creates an empty Registry. publisher may be nil.
func New(publisher Publisher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries:   make(map[string]*entry),
		publisher: publisher,
		logger:    logger.With("component", "task_registry"),
	}
}

// Create inserts initial under id and returns the only handle allowed to
// publish changes to it.
func (r *Registry) Create(ctx context.Context, id string, initial domain.Task) (*Handle, error) {
	if id == "" {
		return nil, ErrEmptyTaskID
	}
	if err := initial.Status.Validate(); err != nil {
		return nil, err
	}

	snapshot := initial.Clone()
	snapshot.ID = id

	e := &entry{}
	e.current.Store(&snapshot)

	r.mu.Lock()
	if _, exists := r.entries[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrTaskExists, id)
	}
	r.entries[id] = e
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "task registered", "task_id", id, "status", snapshot.Status)
	r.announce(ctx, snapshot)

	return &Handle{id: id, entry: e, registry: r}, nil
}

// Get returns the latest snapshot for id.
func (r *Registry) Get(id string) (domain.Task, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return *e.current.Load(), nil
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) announce(ctx context.Context, task domain.Task) {
	if r.publisher != nil {
		r.publisher.PublishTask(ctx, task)
	}
}

// Handle grants write access to a single task. It is owned by the pipeline
// running that task and must not be shared.
type Handle struct {
	id       string
	entry    *entry
	registry *Registry
}

// ID returns the task id this handle writes to.
func (h *Handle) ID() string {
	return h.id
}

// Snapshot returns the latest published state.
func (h *Handle) Snapshot() domain.Task {
	return *h.entry.current.Load()
}

// Update applies mutate to a private copy of the current snapshot and
// publishes the result atomically. Updates to a terminal task are rejected.
func (h *Handle) Update(ctx context.Context, mutate func(*domain.Task)) (domain.Task, error) {
	current := h.entry.current.Load()
	if current.Status.IsTerminal() {
		return *current, fmt.Errorf("%w: %s is %s", ErrTaskTerminal, h.id, current.Status)
	}

	next := current.Clone()
	mutate(&next)
	next.ID = h.id
	next.UpdatedAt = time.Now().UTC()

	if err := next.Status.Validate(); err != nil {
		return *current, err
	}

	h.entry.current.Store(&next)
	h.registry.announce(ctx, next)
	return next, nil
}

package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dnalab/design-evolution/internal/domain"
)

// Event type constants
const (
	// EventTypeTaskStatus is emitted whenever a task snapshot is published
	EventTypeTaskStatus = "task.status"
)

// TaskStatusEvent carries a task snapshot published to the registry.
type TaskStatusEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates the kind of event
	Type string `json:"type"`

	// Task is the published snapshot
	Task domain.Task `json:"task"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskStatusEvent wraps a snapshot in a new event.
func NewTaskStatusEvent(task domain.Task) *TaskStatusEvent {
	return &TaskStatusEvent{
		ID:        uuid.New(),
		Type:      EventTypeTaskStatus,
		Task:      task,
		CreatedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers must not block; they run on the publishing pipeline's goroutine.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskStatusEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the registry to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskStatusEvent) error
}

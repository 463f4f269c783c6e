package domain

import (
	"fmt"
	"time"
)

// TaskStatus represents the current state of an evolution task
type TaskStatus string

// Possible task status values
const (
	TaskStatusCreated   TaskStatus = "created"
	TaskStatusPlanning  TaskStatus = "planning"
	TaskStatusRendering TaskStatus = "rendering"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Validate checks that s is one of the known statuses.
func (s TaskStatus) Validate() error {
	switch s {
	case TaskStatusCreated, TaskStatusPlanning, TaskStatusRendering,
		TaskStatusCompleted, TaskStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// ErrorKind classifies the failure recorded on a failed task.
type ErrorKind string

// Error kinds surfaced on Task.ErrorKind
const (
	ErrorKindPlanningFailed  ErrorKind = "planning_failed"
	ErrorKindUnexpectedError ErrorKind = "unexpected_error"
)

// Task is the record a polling client observes for one feedback round.
//
// Values of Task are snapshots: once published they are never modified,
// and every change produces a new value.
type Task struct {
	ID             string        `json:"id"`
	Round          int           `json:"round"`
	Status         TaskStatus    `json:"status"`
	Images         []ImageResult `json:"images"`
	UpdatedProfile Profile       `json:"updated_state"`
	Error          string        `json:"error,omitempty"`
	ErrorKind      ErrorKind     `json:"error_kind,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewTask creates the initial record for a submission. The task starts in
// the created state and carries the caller's profile until planning
// supersedes it.
func NewTask(id string, profile Profile) Task {
	now := time.Now().UTC()
	return Task{
		ID:             id,
		Round:          profile.Round,
		Status:         TaskStatusCreated,
		Images:         []ImageResult{},
		UpdatedProfile: profile.Clone(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	out := t
	out.Images = append([]ImageResult{}, t.Images...)
	out.UpdatedProfile = t.UpdatedProfile.Clone()
	return out
}

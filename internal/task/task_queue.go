package task

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned by Enqueue once the queue has been closed
var ErrQueueClosed = errors.New("task queue is closed")

// TaskQueue is an unbounded FIFO of tasks satisfying both TaskQueueReader
// and TaskQueueWriter. Enqueue never blocks and never rejects a task while
// the queue is open; a pump goroutine hands tasks to the consumer channel
// in submission order.
type TaskQueue struct {
	out    chan Task
	wake   chan struct{}
	logger *slog.Logger

	mu      sync.Mutex
	pending []Task
	// held is 1 while the pump has taken a task off pending but no
	// consumer has received it yet
	held   int
	closed bool
}

// NewTaskQueue creates an open queue and starts its pump
func NewTaskQueue(logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &TaskQueue{
		out:    make(chan Task),
		wake:   make(chan struct{}, 1),
		logger: logger.With("component", "task_queue"),
	}
	go q.pump()
	return q
}

// Enqueue appends task to the queue. It only fails once the queue is closed.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.pending = append(q.pending, task)
	waiting := len(q.pending) + q.held
	q.mu.Unlock()

	q.signal()
	q.logger.Debug("task enqueued",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"queue_len", waiting)
	return nil
}

// Close stops accepting tasks. Tasks already enqueued remain readable and
// the consumer channel is closed after the last of them.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	waiting := len(q.pending) + q.held
	q.mu.Unlock()

	q.signal()
	q.logger.Info("task queue closed", "pending", waiting)
}

// GetChannel returns a read-only channel for consuming tasks
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.out
}

// Len returns the number of tasks not yet received by a consumer.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) + q.held
}

func (q *TaskQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *TaskQueue) pump() {
	defer close(q.out)

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		t := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.held = 1
		q.mu.Unlock()

		q.out <- t

		q.mu.Lock()
		q.held = 0
		q.mu.Unlock()
	}
}

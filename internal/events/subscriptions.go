package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dnalab/design-evolution/internal/domain"
)

// subscriptionBuffer is the number of snapshots a slow subscriber may lag
// behind before older snapshots are discarded in favour of newer ones.
const subscriptionBuffer = 16

type subscriber struct {
	ch chan domain.Task
}

// Subscriptions fans task snapshots out to per-task subscriber channels.
// A subscriber's channel is closed once its task reaches a terminal status
// or the subscription is cancelled.
type Subscriptions struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	logger *slog.Logger
}

// NewSubscriptions creates an empty subscription set.
func NewSubscriptions(logger *slog.Logger) *Subscriptions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriptions{
		subs:   make(map[string]map[*subscriber]struct{}),
		logger: logger.With("component", "task_subscriptions"),
	}
}

// Subscribe registers interest in taskID. The returned cancel func is safe
// to call more than once.
func (s *Subscriptions) Subscribe(taskID string) (<-chan domain.Task, func()) {
	sub := &subscriber{ch: make(chan domain.Task, subscriptionBuffer)}

	s.mu.Lock()
	set, ok := s.subs[taskID]
	if !ok {
		set = make(map[*subscriber]struct{})
		s.subs[taskID] = set
	}
	set[sub] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("subscriber added", "task_id", taskID)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.remove(taskID, sub)
		})
	}
	return sub.ch, cancel
}

// HandleEvent implements EventHandler.
func (s *Subscriptions) HandleEvent(_ context.Context, event *TaskStatusEvent) error {
	taskID := event.Task.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.subs[taskID]
	for sub := range set {
		deliver(sub.ch, event.Task)
		if event.Task.Status.IsTerminal() {
			s.remove(taskID, sub)
		}
	}
	return nil
}

// Count returns the number of live subscribers for taskID.
func (s *Subscriptions) Count(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[taskID])
}

// remove must be called with s.mu held.
func (s *Subscriptions) remove(taskID string, sub *subscriber) {
	set, ok := s.subs[taskID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.ch)
	if len(set) == 0 {
		delete(s.subs, taskID)
	}
}

// deliver never blocks: when the buffer is full the oldest snapshot is
// dropped so the newest one always fits.
func deliver(ch chan domain.Task, task domain.Task) {
	for {
		select {
		case ch <- task:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

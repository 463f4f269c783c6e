package events

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnalab/design-evolution/internal/domain"
)

func snapshot(id string, status domain.TaskStatus) domain.Task {
	task := domain.NewTask(id, domain.Profile{})
	task.Status = status
	return task
}

func TestSubscriptions_DeliversOnlyMatchingTask(t *testing.T) {
	t.Parallel()

	subs := NewSubscriptions(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ch, cancel := subs.Subscribe("a")
	defer cancel()

	ctx := context.Background()
	require.NoError(t, subs.HandleEvent(ctx, NewTaskStatusEvent(snapshot("b", domain.TaskStatusPlanning))))
	require.NoError(t, subs.HandleEvent(ctx, NewTaskStatusEvent(snapshot("a", domain.TaskStatusPlanning))))

	got := <-ch
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, domain.TaskStatusPlanning, got.Status)
	assert.Len(t, ch, 0)
}

func TestSubscriptions_TerminalSnapshotClosesChannel(t *testing.T) {
	t.Parallel()

	subs := NewSubscriptions(nil)
	ch, cancel := subs.Subscribe("a")

	ctx := context.Background()
	require.NoError(t, subs.HandleEvent(ctx, NewTaskStatusEvent(snapshot("a", domain.TaskStatusRendering))))
	require.NoError(t, subs.HandleEvent(ctx, NewTaskStatusEvent(snapshot("a", domain.TaskStatusCompleted))))

	var statuses []domain.TaskStatus
	for task := range ch {
		statuses = append(statuses, task.Status)
	}
	assert.Equal(t, []domain.TaskStatus{domain.TaskStatusRendering, domain.TaskStatusCompleted}, statuses)
	assert.Zero(t, subs.Count("a"))

	// cancelling after the channel closed is a no-op
	cancel()
	cancel()
}

func TestSubscriptions_CancelClosesChannel(t *testing.T) {
	t.Parallel()

	subs := NewSubscriptions(nil)
	ch, cancel := subs.Subscribe("a")
	assert.Equal(t, 1, subs.Count("a"))

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, subs.Count("a"))
}

func TestSubscriptions_SlowSubscriberKeepsNewest(t *testing.T) {
	t.Parallel()

	subs := NewSubscriptions(nil)
	ch, cancel := subs.Subscribe("a")
	defer cancel()

	ctx := context.Background()
	total := subscriptionBuffer + 5
	for i := 0; i < total; i++ {
		task := snapshot("a", domain.TaskStatusRendering)
		task.Round = i
		require.NoError(t, subs.HandleEvent(ctx, NewTaskStatusEvent(task)))
	}

	require.Len(t, ch, subscriptionBuffer)
	var last domain.Task
	for i := 0; i < subscriptionBuffer; i++ {
		last = <-ch
	}
	assert.Equal(t, total-1, last.Round)
}

func TestSubscriptions_WiredThroughEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	emitter := NewInMemoryEventEmitter(logger)
	subs := NewSubscriptions(logger)
	emitter.RegisterHandler(subs)

	ch, cancel := subs.Subscribe("a")
	defer cancel()

	emitter.PublishTask(context.Background(), snapshot("a", domain.TaskStatusFailed))

	got, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	_, open := <-ch
	assert.False(t, open)
}

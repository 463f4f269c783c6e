package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTask implements the Task interface for testing
type mockTask struct {
	id       string
	taskType string
	execFn   func(ctx context.Context) error
}

func (m *mockTask) ID() string {
	return m.id
}

func (m *mockTask) Type() string {
	return m.taskType
}

func (m *mockTask) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockTask() *mockTask {
	return &mockTask{
		id:       uuid.NewString(),
		taskType: "mock",
	}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func receive(t *testing.T, ch <-chan Task) Task {
	t.Helper()
	select {
	case task, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return task
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for task")
		return nil
	}
}

func TestNewTaskQueue(t *testing.T) {
	queue := NewTaskQueue(setupTestLogger())
	defer queue.Close()

	assert.NotNil(t, queue)
	assert.Zero(t, queue.Len())
}

func TestEnqueue_NeverRejectsWhileOpen(t *testing.T) {
	queue := NewTaskQueue(setupTestLogger())
	defer queue.Close()

	// No consumer is reading; every submission must still be accepted.
	tasks := make([]*mockTask, 200)
	for i := range tasks {
		tasks[i] = newMockTask()
		require.NoError(t, queue.Enqueue(tasks[i]))
	}
	assert.Equal(t, len(tasks), queue.Len())

	for _, want := range tasks {
		assert.Equal(t, want.ID(), receive(t, queue.GetChannel()).ID())
	}
	assert.Eventually(t, func() bool { return queue.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClose(t *testing.T) {
	queue := NewTaskQueue(setupTestLogger())

	task := newMockTask()
	require.NoError(t, queue.Enqueue(task))

	queue.Close()

	err := queue.Enqueue(newMockTask())
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Closing twice is harmless
	queue.Close()

	// Tasks enqueued before Close remain readable
	assert.Equal(t, task.ID(), receive(t, queue.GetChannel()).ID())

	select {
	case _, ok := <-queue.GetChannel():
		assert.False(t, ok, "Channel should be closed")
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for closed channel read")
	}
}

func TestConcurrentEnqueue(t *testing.T) {
	queue := NewTaskQueue(setupTestLogger())
	defer queue.Close()

	const producers, perProducer = 5, 20
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, queue.Enqueue(newMockTask()))
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < producers*perProducer; i++ {
		seen[receive(t, queue.GetChannel()).ID()] = true
	}
	assert.Len(t, seen, producers*perProducer, "Should read all enqueued tasks")
}

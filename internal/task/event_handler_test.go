package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTaskFactory records the users it built tasks for
type mockTaskFactory struct {
	createTaskFn func(userID uuid.UUID) (Task, error)
	users        []uuid.UUID
}

func (m *mockTaskFactory) CreateTask(userID uuid.UUID) (Task, error) {
	m.users = append(m.users, userID)
	return m.createTaskFn(userID)
}

func TestTaskFactoryEventHandler_HandleEvent(t *testing.T) {
	// Create a minimal logger that discards output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newRequest := func(t *testing.T, eventType string) *events.Event {
		event, err := events.NewEvent(eventType, uuid.New(), nil, time.Now())
		require.NoError(t, err)
		return event
	}

	t.Run("enqueues a task for digest requests", func(t *testing.T) {
		queue := NewTaskQueue(1, logger)
		task := newMockTask()
		factory := &mockTaskFactory{createTaskFn: func(uuid.UUID) (Task, error) { return task, nil }}
		handler := NewTaskFactoryEventHandler(factory, queue, logger)

		event := newRequest(t, events.TypeDueDigestRequested)
		require.NoError(t, handler.HandleEvent(context.Background(), event))

		assert.Equal(t, []uuid.UUID{event.UserID}, factory.users)
		queued := <-queue.GetChannel()
		assert.Equal(t, task.ID(), queued.ID())
	})

	t.Run("ignores other event types", func(t *testing.T) {
		queue := NewTaskQueue(1, logger)
		factory := &mockTaskFactory{createTaskFn: func(uuid.UUID) (Task, error) { return newMockTask(), nil }}
		handler := NewTaskFactoryEventHandler(factory, queue, logger)

		require.NoError(t, handler.HandleEvent(context.Background(), newRequest(t, events.TypeOutcomeRecorded)))
		assert.Empty(t, factory.users)
		assert.Len(t, queue.GetChannel(), 0)
	})

	t.Run("factory error", func(t *testing.T) {
		factoryErr := errors.New("no stats provider")
		factory := &mockTaskFactory{createTaskFn: func(uuid.UUID) (Task, error) { return nil, factoryErr }}
		handler := NewTaskFactoryEventHandler(factory, NewTaskQueue(1, logger), logger)

		err := handler.HandleEvent(context.Background(), newRequest(t, events.TypeDueDigestRequested))
		assert.ErrorIs(t, err, factoryErr)
	})

	t.Run("full queue", func(t *testing.T) {
		queue := NewTaskQueue(1, logger)
		factory := &mockTaskFactory{createTaskFn: func(uuid.UUID) (Task, error) { return newMockTask(), nil }}
		handler := NewTaskFactoryEventHandler(factory, queue, logger)

		require.NoError(t, handler.HandleEvent(context.Background(), newRequest(t, events.TypeDueDigestRequested)))
		err := handler.HandleEvent(context.Background(), newRequest(t, events.TypeDueDigestRequested))
		assert.ErrorIs(t, err, ErrQueueFull)
	})
}

package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(t *testing.T) *Event {
	t.Helper()
	event, err := NewEvent(TypeInitialStarted, uuid.New(), map[string]string{"key": "value"}, time.Now())
	require.NoError(t, err)
	return event
}

func TestInMemoryEventEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(log)

		// Should not error even with no handlers
		assert.NoError(t, emitter.EmitEvent(context.Background(), newTestEvent(t)))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(log)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := newTestEvent(t)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)
		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		err := emitter.EmitEvent(context.Background(), newTestEvent(t))
		require.Error(t, err)
		assert.Equal(t, "handler error", err.Error())

		// Both handlers should still have received the event
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})
}

func TestLoggingHandler(t *testing.T) {
	log, buf := logger.GetTestLogger(t)
	handler := NewLoggingHandler(log)

	event, err := NewEvent(TypeDueDigest, uuid.New(), DueDigestPayload{DueCount: 3, RemainingQuota: 2}, time.Now())
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))
	logger.AssertLogContains(t, buf, "review event")
	logger.AssertLogField(t, buf, "event_type", TypeDueDigest)
	logger.AssertLogContains(t, buf, `\"due_count\":3`)
}

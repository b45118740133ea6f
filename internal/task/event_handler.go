package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/events"
)

// TaskFactory builds a task for one user.
type TaskFactory interface {
	CreateTask(userID uuid.UUID) (Task, error)
}

// TaskFactoryEventHandler implements the events.EventHandler interface
// to turn digest requests into queued tasks.
type TaskFactoryEventHandler struct {
	factory TaskFactory
	queue   TaskQueueWriter
	logger  *slog.Logger
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and enqueues them on the provided queue.
func NewTaskFactoryEventHandler(factory TaskFactory, queue TaskQueueWriter, logger *slog.Logger) *TaskFactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskFactoryEventHandler{
		factory: factory,
		queue:   queue,
		logger:  logger.With(slog.String("component", "task_factory_event_handler")),
	}
}

// HandleEvent handles review.due_digest_requested events and ignores all others.
func (h *TaskFactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeDueDigestRequested {
		return nil
	}

	log := h.logger.With(
		slog.String("event_id", event.ID.String()),
		slog.String("user_id", event.UserID.String()),
	)

	task, err := h.factory.CreateTask(event.UserID)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.queue.Enqueue(task); err != nil {
		log.Error("failed to enqueue task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID().String()))
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Debug("task enqueued", slog.String("task_id", task.ID().String()))
	return nil
}

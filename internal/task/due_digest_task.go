package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/clock"
	"github.com/phrazzld/scry-scheduler/internal/events"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// Common errors
var (
	ErrNilStatsProvider = errors.New("stats provider cannot be nil")
	ErrNilEmitter       = errors.New("event emitter cannot be nil")
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
)

// StatsProvider computes a learner's review summary.
type StatsProvider interface {
	Stats(ctx context.Context, userID uuid.UUID) (*review.Stats, error)
}

type dueDigestPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// DueDigestTask computes one learner's due backlog and emits a
// review.due_digest event when anything is due.
type DueDigestTask struct {
	id      uuid.UUID
	userID  uuid.UUID
	stats   StatsProvider
	emitter events.EventEmitter
	clock   clock.Clock
	logger  *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

var _ Task = (*DueDigestTask)(nil)

// NewDueDigestTask creates a digest task for userID.
func NewDueDigestTask(
	userID uuid.UUID,
	stats StatsProvider,
	emitter events.EventEmitter,
	clk clock.Clock,
	logger *slog.Logger,
) (*DueDigestTask, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if stats == nil {
		return nil, ErrNilStatsProvider
	}
	if emitter == nil {
		return nil, ErrNilEmitter
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.New()
	return &DueDigestTask{
		id:      id,
		userID:  userID,
		stats:   stats,
		emitter: emitter,
		clock:   clk,
		logger: logger.With(
			slog.String("task_id", id.String()),
			slog.String("task_type", TaskTypeDueDigest),
			slog.String("user_id", userID.String()),
		),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *DueDigestTask) ID() uuid.UUID { return t.id }

// Type returns the task type identifier
func (t *DueDigestTask) Type() string { return TaskTypeDueDigest }

// UserID returns the learner the digest is for.
func (t *DueDigestTask) UserID() uuid.UUID { return t.userID }

// Payload returns the task data as JSON.
func (t *DueDigestTask) Payload() []byte {
	b, err := json.Marshal(dueDigestPayload{UserID: t.userID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", slog.String("error", err.Error()))
		return nil
	}
	return b
}

// Status returns the current task status
func (t *DueDigestTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *DueDigestTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
}

// Execute implements Task.
func (t *DueDigestTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)

	stats, err := t.stats.Stats(ctx, t.userID)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to compute review stats: %w", err)
	}

	if stats.DueNow == 0 {
		t.logger.Debug("nothing due, skipping digest")
		t.setStatus(TaskStatusCompleted)
		return nil
	}

	event, err := events.NewEvent(events.TypeDueDigest, t.userID, events.DueDigestPayload{
		DueCount:       stats.DueNow,
		RemainingQuota: stats.RemainingQuota,
	}, t.clock.Now())
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to build digest event: %w", err)
	}

	if err := t.emitter.EmitEvent(ctx, event); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to emit digest event: %w", err)
	}

	t.logger.Debug("due digest emitted",
		slog.Int("due_count", stats.DueNow),
		slog.Int("remaining_quota", stats.RemainingQuota))
	t.setStatus(TaskStatusCompleted)
	return nil
}

// DueDigestTaskFactory creates DueDigestTask instances
type DueDigestTaskFactory struct {
	stats   StatsProvider
	emitter events.EventEmitter
	clock   clock.Clock
	logger  *slog.Logger
}

// NewDueDigestTaskFactory creates a new factory for DueDigestTasks
func NewDueDigestTaskFactory(
	stats StatsProvider,
	emitter events.EventEmitter,
	clk clock.Clock,
	logger *slog.Logger,
) *DueDigestTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DueDigestTaskFactory{
		stats:   stats,
		emitter: emitter,
		clock:   clk,
		logger:  logger,
	}
}

// CreateTask creates a new DueDigestTask for the specified user
func (f *DueDigestTaskFactory) CreateTask(userID uuid.UUID) (Task, error) {
	task, err := NewDueDigestTask(userID, f.stats, f.emitter, f.clock, f.logger)
	if err != nil {
		return nil, err
	}
	return task, nil
}

package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
)

// LoggingHandler writes every event it receives to the log. Digests are
// logged at info level, everything else at debug.
type LoggingHandler struct {
	logger *slog.Logger
}

var _ EventHandler = (*LoggingHandler)(nil)

// NewLoggingHandler creates a LoggingHandler. If logger is nil, a default
// logger will be used.
func NewLoggingHandler(l *slog.Logger) *LoggingHandler {
	if l == nil {
		l = slog.Default()
	}
	return &LoggingHandler{logger: l.With(slog.String("component", "event_log"))}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *Event) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	level := slog.LevelDebug
	if event.Type == TypeDueDigest {
		level = slog.LevelInfo
	}

	log.Log(ctx, level, "review event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID.String()),
		slog.Time("created_at", event.CreatedAt),
		slog.String("payload", string(event.Payload)))
	return nil
}

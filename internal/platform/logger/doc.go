// Package logger provides structured logging for the scheduler.
//
// It builds JSON log/slog loggers from configuration and carries request-scoped
// loggers through context.Context, so that trace and user identifiers added by
// the HTTP layer show up on every record written further down the stack.
package logger

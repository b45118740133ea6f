// Package migrate applies the embedded SQL migrations of the storage
// backends using goose.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/pressly/goose/v3/lock"
)

// TableName is the table goose records applied versions in.
const TableName = "schema_migrations"

// Supported migration commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// Runner executes migrations for one database.
type Runner struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// NewRunner creates a Runner for db. dialect must match the driver db was
// opened with; fsys holds the .sql files at its root.
func NewRunner(db *sql.DB, dialect database.Dialect, fsys fs.FS, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "migrations"),
		slog.String("dialect", string(dialect)),
	)

	store, err := database.NewStore(dialect, TableName)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration store: %w", err)
	}

	opts := []goose.ProviderOption{
		goose.WithStore(store),
		goose.WithLogger(&slogGooseLogger{logger: logger}),
		goose.WithDisableGlobalRegistry(true),
	}
	if dialect == database.DialectPostgres {
		// Serialises concurrent migrators against the same database.
		locker, err := lock.NewPostgresSessionLocker()
		if err != nil {
			return nil, fmt.Errorf("failed to create migration lock: %w", err)
		}
		opts = append(opts, goose.WithSessionLocker(locker))
	}

	provider, err := goose.NewProvider("", db, fsys, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Runner{provider: provider, logger: logger}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	for _, res := range results {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	res, err := r.provider.Down(ctx)
	if res != nil {
		r.logResult(res)
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// Version returns the current schema version (0 when nothing is applied).
func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Status logs the state of every known migration and returns the number of
// pending ones.
func (r *Runner) Status(ctx context.Context) (int, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration status: %w", err)
	}

	pending := 0
	for _, st := range statuses {
		attrs := []any{
			slog.Int64("version", st.Source.Version),
			slog.String("path", st.Source.Path),
			slog.String("state", string(st.State)),
		}
		if st.State == goose.StateApplied {
			attrs = append(attrs, slog.Time("applied_at", st.AppliedAt))
		} else {
			pending++
		}
		r.logger.Info("migration status", attrs...)
	}
	return pending, nil
}

// Run dispatches one of the Command* names.
func (r *Runner) Run(ctx context.Context, command string) error {
	start := time.Now()
	r.logger.Info("starting migration command", slog.String("command", command))

	var err error
	switch command {
	case CommandUp:
		err = r.Up(ctx)
	case CommandDown:
		err = r.Down(ctx)
	case CommandStatus:
		_, err = r.Status(ctx)
	case CommandVersion:
		var v int64
		if v, err = r.Version(ctx); err == nil {
			r.logger.Info("current schema version", slog.Int64("version", v))
		}
	default:
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, status, or version)",
			command,
		)
	}
	if err != nil {
		r.logger.Error("migration command failed",
			slog.String("command", command),
			slog.String("error", err.Error()))
		return err
	}

	r.logger.Info("migration command completed",
		slog.String("command", command),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

func (r *Runner) logResult(res *goose.MigrationResult) {
	attrs := []any{
		slog.Int64("version", res.Source.Version),
		slog.String("direction", res.Direction),
		slog.Int64("duration_ms", res.Duration.Milliseconds()),
	}
	if res.Error != nil {
		r.logger.Error("migration failed", append(attrs, slog.String("error", res.Error.Error()))...)
		return
	}
	r.logger.Info("migration applied", attrs...)
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level. It does NOT exit; errors are returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-scheduler/internal/platform/migrate"
)

// runMigrations executes one migration command (up, down, status or version)
// against the application database.
func runMigrations(ctx context.Context, d *appDatabase, command string, logger *slog.Logger) error {
	runner, err := migrate.NewRunner(d.db, d.dialect, d.migrations, logger)
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}
	return runner.Run(ctx, command)
}

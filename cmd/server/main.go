// Package main implements the entry point for the review scheduler server,
// which decides when each learner should next see each item.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/clock"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/migrate"
	"github.com/phrazzld/scry-scheduler/internal/service/auth"
)

// options are the command-line flags of the server binary.
type options struct {
	// migrate runs one migration command and exits.
	migrate string
	// issueToken prints an access token for the given user ID and exits.
	issueToken string
}

func main() {
	var opts options
	flag.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, status, version) and exit")
	flag.StringVar(&opts.issueToken, "issue-token", "",
		"print an access token for the given user ID and exit")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatalf("review scheduler failed: %v", err)
	}
}

// run loads configuration and performs the action selected by opts.
func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	if opts.issueToken != "" {
		return issueToken(ctx, cfg.Auth, opts.issueToken, out)
	}

	db, err := openDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if opts.migrate != "" {
		defer func() { _ = db.Close() }()
		return runMigrations(ctx, db, opts.migrate, l)
	}

	// A SQLite database belongs to this process alone, so its schema is
	// brought up to date on start. PostgreSQL is migrated explicitly.
	if db.driver == config.DriverSQLite {
		if err := runMigrations(ctx, db, migrate.CommandUp, l); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(cfg, l, db, clock.System())
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// issueToken writes a signed access token for userID to out.
func issueToken(ctx context.Context, cfg config.AuthConfig, rawUserID string, out io.Writer) error {
	userID, err := uuid.Parse(rawUserID)
	if err != nil || userID == uuid.Nil {
		return fmt.Errorf("invalid user ID %q", rawUserID)
	}

	jwtService, err := auth.NewJWTService(cfg, clock.System())
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	token, err := jwtService.GenerateToken(ctx, userID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

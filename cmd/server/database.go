package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/phrazzld/scry-scheduler/internal/platform/postgres"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/pressly/goose/v3/database"
)

// appDatabase is an open connection pool together with the migration
// dialect and schema matching its driver.
type appDatabase struct {
	db         *sql.DB
	driver     string
	dialect    database.Dialect
	migrations fs.FS
}

// openDatabase establishes a connection to the configured database and configures the pool.
// Returns the database if successful, or an error if the connection fails.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*appDatabase, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}

		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		logger.Info("database connection established", slog.String("driver", cfg.Driver))
		return &appDatabase{
			db:         db,
			driver:     cfg.Driver,
			dialect:    database.DialectPostgres,
			migrations: postgres.Migrations(),
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}

		logger.Info("database connection established", slog.String("driver", cfg.Driver))
		return &appDatabase{
			db:         db.DB,
			driver:     cfg.Driver,
			dialect:    database.DialectSQLite3,
			migrations: sqlite.Migrations(),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// newStores builds the review stores for the database's driver.
func (d *appDatabase) newStores(logger *slog.Logger) (store.ReviewPointStore, store.ReviewSettingsStore) {
	if d.driver == config.DriverSQLite {
		return sqlite.NewReviewPointStore(d.db, logger), sqlite.NewReviewSettingsStore(d.db, logger)
	}
	return postgres.NewPostgresReviewPointStore(d.db, logger), postgres.NewPostgresReviewSettingsStore(d.db, logger)
}

// Close closes the underlying pool.
func (d *appDatabase) Close() error {
	return d.db.Close()
}

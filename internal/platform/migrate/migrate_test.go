package migrate_test

import (
	"context"
	"testing"

	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/migrate"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/pressly/goose/v3/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRunner(t *testing.T) (*migrate.Runner, *logger.TestLogBuffer) {
	t.Helper()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, buf := logger.GetTestLogger(t)
	runner, err := migrate.NewRunner(db.DB, database.DialectSQLite3, sqlite.Migrations(), log)
	require.NoError(t, err)
	return runner, buf
}

func TestRunnerLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	runner, _ := newSQLiteRunner(t)

	version, err := runner.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, version)

	pending, err := runner.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending)

	require.NoError(t, runner.Up(ctx))
	version, err = runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20250101000002), version)

	pending, err = runner.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	// Applying again is a no-op.
	require.NoError(t, runner.Up(ctx))

	require.NoError(t, runner.Down(ctx))
	version, err = runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20250101000001), version)
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	runner, buf := newSQLiteRunner(t)

	require.NoError(t, runner.Run(ctx, migrate.CommandUp))
	require.NoError(t, runner.Run(ctx, migrate.CommandVersion))
	require.NoError(t, runner.Run(ctx, migrate.CommandStatus))

	logger.AssertLogContains(t, buf, "migration command completed")
	logger.AssertLogContains(t, buf, "current schema version")

	err := runner.Run(ctx, "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

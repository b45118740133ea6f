package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeFormatSortsChronologically(t *testing.T) {
	t.Parallel()

	// 09:00:00.5Z against 09:00:01Z: a layout that trimmed trailing zeros
	// would sort "09:00:01Z" before "09:00:00.5Z".
	earlier := time.Date(2024, 1, 1, 9, 0, 0, 500_000_000, time.UTC)
	later := time.Date(2024, 1, 1, 10, 0, 1, 0, time.FixedZone("UTC+1", 3600))

	a, b := formatTime(earlier), formatTime(later)
	assert.Len(t, b, len(a))
	assert.Less(t, a, b)

	parsed, err := parseTime(b)
	require.NoError(t, err)
	assert.True(t, later.Equal(parsed))
	assert.Equal(t, time.UTC, parsed.Location())

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestOpenAppliesPragmas(t *testing.T) {
	t.Parallel()

	db, err := Open(context.Background(), MemoryDSN)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var enabled int
	require.NoError(t, db.Get(&enabled, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, enabled)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

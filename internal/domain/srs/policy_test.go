package srs

import (
	"testing"

	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, days ...int) domain.IntervalTable {
	t.Helper()
	table, err := domain.NewIntervalTable(days...)
	require.NoError(t, err)
	return table
}

func TestNextIntervalWithinBounds(t *testing.T) {
	t.Parallel()
	days := []int{1, 3, 7, 14, 30}
	table := mustTable(t, days...)

	for count, want := range days {
		got, err := NextInterval(count, table)
		require.NoError(t, err)
		assert.Equal(t, want, got, "repetition count %d", count)
	}
}

func TestNextIntervalPlateau(t *testing.T) {
	t.Parallel()
	table := mustTable(t, 1, 3, 7, 14)

	for _, count := range []int{4, 5, 17, 10000} {
		got, err := NextInterval(count, table)
		require.NoError(t, err)
		assert.Equal(t, 14, got, "repetition count %d", count)
	}
}

func TestNextIntervalSingleEntryTable(t *testing.T) {
	t.Parallel()
	table := mustTable(t, 2)

	for _, count := range []int{0, 1, 99} {
		got, err := NextInterval(count, table)
		require.NoError(t, err)
		assert.Equal(t, 2, got)
	}
}

func TestNextIntervalNegativeCountUsesFirstEntry(t *testing.T) {
	t.Parallel()

	got, err := NextInterval(-3, mustTable(t, 5, 10))
	require.NoError(t, err)
	assert.Equal(t, 5, got)
}

func TestNextIntervalEmptyTable(t *testing.T) {
	t.Parallel()

	_, err := NextInterval(0, domain.IntervalTable{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

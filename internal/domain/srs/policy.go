package srs

import (
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// NextInterval returns the number of days until the next review for a point
// that has completed repetitionCount successful repetitions.
//
// Counts inside the table return table[count]. Counts at or past the end of
// the table return the last entry, so interval growth plateaus instead of
// failing. Negative counts are treated as 0.
//
// The only failure is an empty table, which wraps domain.ErrInvalidConfiguration.
// Tables built with domain.NewIntervalTable or domain.ParseIntervalTable are
// never empty, so validated settings never hit this path.
func NextInterval(repetitionCount int, table domain.IntervalTable) (int, error) {
	n := table.Len()
	if n == 0 {
		return 0, domain.NewConfigurationError("intervals", "interval table cannot be empty")
	}

	switch {
	case repetitionCount < 0:
		return table.At(0), nil
	case repetitionCount >= n:
		return table.At(n - 1), nil
	default:
		return table.At(repetitionCount), nil
	}
}

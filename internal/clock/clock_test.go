package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockIsUTC(t *testing.T) {
	t.Parallel()

	now := System().Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestFixedClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	c := NewFixed(start)
	assert.Equal(t, start, c.Now())

	c.Advance(2 * time.Minute)
	assert.Equal(t, start.Add(2*time.Minute), c.Now())

	later := start.AddDate(0, 0, 3)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

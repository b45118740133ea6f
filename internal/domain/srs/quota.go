package srs

import (
	"time"
)

// DayBounds returns the local calendar day containing now in loc as the
// half-open range [start, end).
//
// The bounds are local midnights, not now minus 24 hours, so on DST
// transition days the range may be 23 or 25 hours long.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end
}

// RemainingNewItemQuota returns how many never-reviewed items may still be
// started today given the daily limit and the number of initial reviews
// already started inside today's DayBounds. It never returns a negative value.
func RemainingNewItemQuota(dailyLimit, startedToday int) int {
	remaining := dailyLimit - startedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

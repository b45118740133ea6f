package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SadResetStrategy selects how a SAD outcome rewinds the repetition count.
type SadResetStrategy string

// Supported SAD reset strategies
const (
	// SadResetToZero restarts the item at the first interval.
	SadResetToZero SadResetStrategy = "to_zero"

	// SadResetDecrementOne steps the item back one interval, never below zero.
	SadResetDecrementOne SadResetStrategy = "decrement_one"
)

// Valid reports whether s is a known strategy.
func (s SadResetStrategy) Valid() bool {
	return s == SadResetToZero || s == SadResetDecrementOne
}

// IntervalTable is an ordered, non-empty list of positive day counts indexed
// by repetition count. The zero value is an empty (unusable) table.
type IntervalTable struct {
	days []int
}

// NewIntervalTable validates days and returns an IntervalTable holding a copy.
func NewIntervalTable(days ...int) (IntervalTable, error) {
	if len(days) == 0 {
		return IntervalTable{}, NewConfigurationError("intervals", "interval table cannot be empty")
	}
	for i, d := range days {
		if d <= 0 {
			return IntervalTable{}, NewConfigurationError(
				"intervals",
				"interval at position "+strconv.Itoa(i)+" must be a positive number of days",
			)
		}
	}
	cp := make([]int, len(days))
	copy(cp, days)
	return IntervalTable{days: cp}, nil
}

// ParseIntervalTable parses a comma separated list such as "1, 3, 7, 14".
func ParseIntervalTable(s string) (IntervalTable, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return IntervalTable{}, NewConfigurationError("intervals", "interval table cannot be empty")
	}

	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, part := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return IntervalTable{}, NewConfigurationError("intervals", "not a whole number of days: "+strconv.Quote(part))
		}
		days = append(days, d)
	}
	return NewIntervalTable(days...)
}

// Len returns the number of entries in the table.
func (t IntervalTable) Len() int {
	return len(t.days)
}

// At returns the entry at index i. Callers must stay within [0, Len()).
func (t IntervalTable) At(i int) int {
	return t.days[i]
}

// Days returns a copy of the table entries.
func (t IntervalTable) Days() []int {
	cp := make([]int, len(t.days))
	copy(cp, t.days)
	return cp
}

// String renders the table in the comma separated form accepted by ParseIntervalTable.
func (t IntervalTable) String() string {
	parts := make([]string, len(t.days))
	for i, d := range t.days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ReviewSettingsConfig is the raw, unvalidated form of a user's review
// settings as it arrives from configuration files, storage rows or requests.
type ReviewSettingsConfig struct {
	Intervals         string `json:"intervals"`
	DailyLimit        int    `json:"daily_limit"`
	Timezone          string `json:"timezone"`
	SadReset          string `json:"sad_reset"`
	AgainRetryMinutes int    `json:"again_retry_minutes"`
}

// ReviewSettings is the validated, immutable per-user scheduling configuration.
// Construct it with NewReviewSettings; a zero ReviewSettings is not usable.
type ReviewSettings struct {
	userID     uuid.UUID
	intervals  IntervalTable
	dailyLimit int
	location   *time.Location
	sadReset   SadResetStrategy
	againRetry time.Duration
}

// NewReviewSettings validates cfg and returns the settings for userID.
// userID may be uuid.Nil for application-wide defaults.
// Every failure is a *ConfigurationError wrapping ErrInvalidConfiguration.
func NewReviewSettings(userID uuid.UUID, cfg ReviewSettingsConfig) (ReviewSettings, error) {
	intervals, err := ParseIntervalTable(cfg.Intervals)
	if err != nil {
		return ReviewSettings{}, err
	}

	if cfg.DailyLimit <= 0 {
		return ReviewSettings{}, NewConfigurationError("daily_limit", "must be greater than 0")
	}

	if strings.TrimSpace(cfg.Timezone) == "" {
		return ReviewSettings{}, NewConfigurationError("timezone", "cannot be empty")
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return ReviewSettings{}, NewConfigurationError("timezone", "unknown timezone "+strconv.Quote(cfg.Timezone))
	}

	sad := SadResetStrategy(cfg.SadReset)
	if !sad.Valid() {
		return ReviewSettings{}, NewConfigurationError("sad_reset", "must be one of to_zero, decrement_one")
	}

	if cfg.AgainRetryMinutes <= 0 {
		return ReviewSettings{}, NewConfigurationError("again_retry_minutes", "must be greater than 0")
	}

	return ReviewSettings{
		userID:     userID,
		intervals:  intervals,
		dailyLimit: cfg.DailyLimit,
		location:   loc,
		sadReset:   sad,
		againRetry: time.Duration(cfg.AgainRetryMinutes) * time.Minute,
	}, nil
}

// ForUser returns a copy of s owned by userID.
func (s ReviewSettings) ForUser(userID uuid.UUID) ReviewSettings {
	s.userID = userID
	return s
}

// UserID returns the owning user, or uuid.Nil for defaults.
func (s ReviewSettings) UserID() uuid.UUID { return s.userID }

// Intervals returns the interval table.
func (s ReviewSettings) Intervals() IntervalTable { return s.intervals }

// DailyLimit returns the maximum number of new items per local day.
func (s ReviewSettings) DailyLimit() int { return s.dailyLimit }

// Location returns the user's timezone. It is never nil for valid settings.
func (s ReviewSettings) Location() *time.Location { return s.location }

// SadReset returns the SAD reset strategy.
func (s ReviewSettings) SadReset() SadResetStrategy { return s.sadReset }

// AgainRetry returns how soon an AGAIN outcome brings the item back.
func (s ReviewSettings) AgainRetry() time.Duration { return s.againRetry }

// IsZero reports whether s was never constructed through NewReviewSettings.
func (s ReviewSettings) IsZero() bool { return s.location == nil }

// Config returns the raw form of s, suitable for storage or responses.
func (s ReviewSettings) Config() ReviewSettingsConfig {
	tz := ""
	if s.location != nil {
		tz = s.location.String()
	}
	return ReviewSettingsConfig{
		Intervals:         s.intervals.String(),
		DailyLimit:        s.dailyLimit,
		Timezone:          tz,
		SadReset:          string(s.sadReset),
		AgainRetryMinutes: int(s.againRetry / time.Minute),
	}
}

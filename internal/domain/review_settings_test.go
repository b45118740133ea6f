package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettingsConfig() ReviewSettingsConfig {
	return ReviewSettingsConfig{
		Intervals:         "1,3,7,14",
		DailyLimit:        5,
		Timezone:          "Asia/Shanghai",
		SadReset:          string(SadResetToZero),
		AgainRetryMinutes: 10,
	}
}

func TestParseIntervalTable(t *testing.T) {
	t.Parallel()

	table, err := ParseIntervalTable(" 1, 3 ,7,14 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7, 14}, table.Days())
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, "1,3,7,14", table.String())

	for _, input := range []string{"", "   ", "1,,3", "1,x", "0,1", "1,-3"} {
		_, err := ParseIntervalTable(input)
		assert.ErrorIs(t, err, ErrInvalidConfiguration, "input %q", input)
	}
}

func TestNewIntervalTableCopiesInput(t *testing.T) {
	t.Parallel()

	days := []int{1, 2, 4}
	table, err := NewIntervalTable(days...)
	require.NoError(t, err)

	days[0] = 99
	assert.Equal(t, 1, table.At(0))

	out := table.Days()
	out[1] = 99
	assert.Equal(t, 2, table.At(1))
}

func TestNewReviewSettings(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	settings, err := NewReviewSettings(userID, validSettingsConfig())
	require.NoError(t, err)

	assert.Equal(t, userID, settings.UserID())
	assert.Equal(t, []int{1, 3, 7, 14}, settings.Intervals().Days())
	assert.Equal(t, 5, settings.DailyLimit())
	assert.Equal(t, "Asia/Shanghai", settings.Location().String())
	assert.Equal(t, SadResetToZero, settings.SadReset())
	assert.Equal(t, 10*time.Minute, settings.AgainRetry())
	assert.False(t, settings.IsZero())
	assert.Equal(t, validSettingsConfig(), settings.Config())

	other := uuid.New()
	assert.Equal(t, other, settings.ForUser(other).UserID())
	assert.Equal(t, userID, settings.UserID())
}

func TestNewReviewSettingsRejectsInvalidConfiguration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(*ReviewSettingsConfig)
		field  string
	}{
		{"empty intervals", func(c *ReviewSettingsConfig) { c.Intervals = "" }, "intervals"},
		{"zero daily limit", func(c *ReviewSettingsConfig) { c.DailyLimit = 0 }, "daily_limit"},
		{"negative daily limit", func(c *ReviewSettingsConfig) { c.DailyLimit = -2 }, "daily_limit"},
		{"empty timezone", func(c *ReviewSettingsConfig) { c.Timezone = "" }, "timezone"},
		{"unknown timezone", func(c *ReviewSettingsConfig) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"unknown sad strategy", func(c *ReviewSettingsConfig) { c.SadReset = "halve" }, "sad_reset"},
		{"zero again retry", func(c *ReviewSettingsConfig) { c.AgainRetryMinutes = 0 }, "again_retry_minutes"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validSettingsConfig()
			tc.mutate(&cfg)

			settings, err := NewReviewSettings(uuid.Nil, cfg)
			require.Error(t, err)
			assert.True(t, settings.IsZero())
			assert.ErrorIs(t, err, ErrInvalidConfiguration)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestStateErrorUnwrap(t *testing.T) {
	t.Parallel()

	err := NewStateError("record_outcome", uuid.New(), uuid.New(), ErrInvalidState)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrAlreadyReviewed)
	assert.Contains(t, err.Error(), "record_outcome")
}

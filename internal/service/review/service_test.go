package review_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/clock"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/events"
	"github.com/phrazzld/scry-scheduler/internal/platform/sqlite"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/phrazzld/scry-scheduler/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.AddDate(0, 0, n) }

func settingsConfig() domain.ReviewSettingsConfig {
	return domain.ReviewSettingsConfig{
		Intervals:         "1,3,7,14",
		DailyLimit:        5,
		Timezone:          "UTC",
		SadReset:          string(domain.SadResetToZero),
		AgainRetryMinutes: 10,
	}
}

// eventRecorder captures emitted events.
type eventRecorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *eventRecorder) HandleEvent(_ context.Context, e *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	svc    review.ReviewService
	clock  *clock.Fixed
	events *eventRecorder
	userID uuid.UUID
}

func newHarness(t *testing.T, cfg domain.ReviewSettingsConfig, start time.Time) *harness {
	t.Helper()
	return newHarnessWithPoints(t, cfg, start, nil)
}

// newHarnessWithPoints lets wrap replace the review point repository the
// service sees.
func newHarnessWithPoints(
	t *testing.T,
	cfg domain.ReviewSettingsConfig,
	start time.Time,
	wrap func(review.ReviewPointRepository) review.ReviewPointRepository,
) *harness {
	t.Helper()

	db := testdb.OpenSQLite(t)
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	defaults, err := domain.NewReviewSettings(uuid.Nil, cfg)
	require.NoError(t, err)

	emitter := events.NewInMemoryEventEmitter(discard)
	recorder := &eventRecorder{}
	emitter.RegisterHandler(recorder)

	var points review.ReviewPointRepository = review.NewReviewPointRepositoryAdapter(
		sqlite.NewReviewPointStore(db, discard), db)
	if wrap != nil {
		points = wrap(points)
	}

	clk := clock.NewFixed(start)
	svc := review.NewReviewService(review.Deps{
		Points:    points,
		Settings:  review.NewSettingsRepositoryAdapter(sqlite.NewReviewSettingsStore(db, discard)),
		Scheduler: srs.NewDefaultService(),
		Clock:     clk,
		Defaults:  defaults,
		Emitter:   emitter,
		Logger:    discard,
	})

	return &harness{svc: svc, clock: clk, events: recorder, userID: uuid.New()}
}

func TestOutcomeScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)
	itemID := uuid.New()

	point, err := h.svc.StartInitialReview(ctx, h.userID, itemID)
	require.NoError(t, err)
	assert.Equal(t, 0, point.RepetitionCount)
	assert.Equal(t, day(1), point.NextReviewAt)

	_, err = h.svc.NextDueItem(ctx, h.userID)
	assert.ErrorIs(t, err, review.ErrNoItemsDue)

	steps := []struct {
		at      time.Time
		outcome domain.ReviewOutcome
		count   int
		next    time.Time
	}{
		{day(1), domain.ReviewOutcomeHappy, 1, day(4)},
		{day(4), domain.ReviewOutcomeSatisfying, 2, day(11)},
		{day(11), domain.ReviewOutcomeSad, 0, day(12)},
		{day(12), domain.ReviewOutcomeAgain, 0, day(12).Add(10 * time.Minute)},
	}
	for _, step := range steps {
		h.clock.Set(step.at)

		due, err := h.svc.NextDueItem(ctx, h.userID)
		require.NoError(t, err)
		assert.Equal(t, itemID, due.ItemID)

		updated, err := h.svc.ApplyOutcome(ctx, h.userID, itemID, step.outcome)
		require.NoError(t, err, "outcome %s", step.outcome)
		assert.Equal(t, step.count, updated.RepetitionCount, "outcome %s", step.outcome)
		assert.True(t, step.next.Equal(updated.NextReviewAt), "outcome %s: got %s", step.outcome, updated.NextReviewAt)
		assert.True(t, day0.Equal(updated.InitialReviewedAt))
	}

	assert.Equal(t, []string{
		events.TypeInitialStarted,
		events.TypeOutcomeRecorded,
		events.TypeOutcomeRecorded,
		events.TypeOutcomeRecorded,
		events.TypeOutcomeRecorded,
	}, h.events.types())
}

func TestNextDueItemPicksEarliest(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)

	first := uuid.New()
	_, err := h.svc.StartInitialReview(ctx, h.userID, first)
	require.NoError(t, err)

	h.clock.Set(day0.Add(time.Hour))
	second := uuid.New()
	_, err = h.svc.StartInitialReview(ctx, h.userID, second)
	require.NoError(t, err)

	h.clock.Set(day(3))
	due, err := h.svc.NextDueItem(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, first, due.ItemID)

	_, err = h.svc.RemoveFromReview(ctx, h.userID, first)
	require.NoError(t, err)

	due, err = h.svc.NextDueItem(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, second, due.ItemID)
}

func TestDailyQuota(t *testing.T) {
	ctx := context.Background()
	cfg := settingsConfig()
	cfg.DailyLimit = 2
	h := newHarness(t, cfg, day0)

	for i := 0; i < 2; i++ {
		_, err := h.svc.StartInitialReview(ctx, h.userID, uuid.New())
		require.NoError(t, err)
	}

	_, err := h.svc.StartInitialReview(ctx, h.userID, uuid.New())
	assert.ErrorIs(t, err, review.ErrQuotaExhausted)

	quota, err := h.svc.RemainingQuota(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, quota.Remaining)
	assert.Equal(t, 2, quota.StartedToday)
	assert.Equal(t, 2, quota.DailyLimit)

	// Another user is unaffected.
	other, err := h.svc.RemainingQuota(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, other.Remaining)

	h.clock.Set(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	quota, err = h.svc.RemainingQuota(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, 2, quota.Remaining)
}

func TestDailyQuotaFollowsLocalCalendarDay(t *testing.T) {
	ctx := context.Background()
	cfg := settingsConfig()
	cfg.DailyLimit = 1
	cfg.Timezone = "Asia/Shanghai"

	// 23:30 on 10 May in UTC+8.
	h := newHarness(t, cfg, time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC))

	_, err := h.svc.StartInitialReview(ctx, h.userID, uuid.New())
	require.NoError(t, err)
	_, err = h.svc.StartInitialReview(ctx, h.userID, uuid.New())
	assert.ErrorIs(t, err, review.ErrQuotaExhausted)

	quota, err := h.svc.RemainingQuota(ctx, h.userID)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 5, 9, 16, 0, 0, 0, time.UTC).Equal(quota.DayStart))
	assert.True(t, time.Date(2024, 5, 10, 16, 0, 0, 0, time.UTC).Equal(quota.DayEnd))

	// 00:30 local on 11 May: a new day even though only an hour passed.
	h.clock.Advance(time.Hour)
	quota, err = h.svc.RemainingQuota(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, quota.Remaining)

	_, err = h.svc.StartInitialReview(ctx, h.userID, uuid.New())
	assert.NoError(t, err)
}

func TestStartInitialReviews(t *testing.T) {
	ctx := context.Background()
	cfg := settingsConfig()
	cfg.DailyLimit = 3
	h := newHarness(t, cfg, day0)

	existing := uuid.New()
	_, err := h.svc.StartInitialReview(ctx, h.userID, existing)
	require.NoError(t, err)

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	started, err := h.svc.StartInitialReviews(ctx, h.userID, []uuid.UUID{existing, a, b, c})
	require.NoError(t, err)
	require.Len(t, started, 2)
	assert.Equal(t, a, started[0].ItemID)
	assert.Equal(t, b, started[1].ItemID)

	_, err = h.svc.StartInitialReviews(ctx, h.userID, []uuid.UUID{c})
	assert.ErrorIs(t, err, review.ErrQuotaExhausted)

	none, err := h.svc.StartInitialReviews(ctx, h.userID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = h.svc.StartInitialReviews(ctx, h.userID, []uuid.UUID{uuid.Nil})
	assert.ErrorIs(t, err, review.ErrInvalidID)
}

// staleLockRepo hides one item from GetForUpdate, as if a concurrent request
// inserted it after this transaction looked.
type staleLockRepo struct {
	review.ReviewPointRepository
	hidden uuid.UUID
}

func (r staleLockRepo) GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error) {
	if itemID == r.hidden {
		return nil, store.ErrReviewPointNotFound
	}
	return r.ReviewPointRepository.GetForUpdate(ctx, userID, itemID)
}

func (r staleLockRepo) WithTx(tx *sql.Tx) review.ReviewPointRepository {
	return staleLockRepo{ReviewPointRepository: r.ReviewPointRepository.WithTx(tx), hidden: r.hidden}
}

func TestStartInitialReviewsSkipsConcurrentlyStartedItem(t *testing.T) {
	ctx := context.Background()
	raced := uuid.New()
	h := newHarnessWithPoints(t, settingsConfig(), day0, func(p review.ReviewPointRepository) review.ReviewPointRepository {
		return staleLockRepo{ReviewPointRepository: p, hidden: raced}
	})

	_, err := h.svc.StartInitialReview(ctx, h.userID, raced)
	require.NoError(t, err)

	fresh := uuid.New()
	started, err := h.svc.StartInitialReviews(ctx, h.userID, []uuid.UUID{raced, fresh})
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, fresh, started[0].ItemID)

	_, err = h.svc.StartInitialReview(ctx, h.userID, raced)
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)

	quota, err := h.svc.RemainingQuota(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, 3, quota.Remaining)
}

func TestRestartAfterRemovalIsRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)
	skippedID, removedID := uuid.New(), uuid.New()

	_, err := h.svc.SkipInitialReview(ctx, h.userID, skippedID)
	require.NoError(t, err)
	_, err = h.svc.StartInitialReview(ctx, h.userID, removedID)
	require.NoError(t, err)
	_, err = h.svc.RemoveFromReview(ctx, h.userID, removedID)
	require.NoError(t, err)

	for _, itemID := range []uuid.UUID{skippedID, removedID} {
		_, err = h.svc.StartInitialReview(ctx, h.userID, itemID)
		var stateErr *domain.StateError
		require.True(t, errors.As(err, &stateErr))
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, itemID, stateErr.ItemID)

		_, err = h.svc.SkipInitialReview(ctx, h.userID, itemID)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}

	// A batch passes over removed items without failing.
	fresh := uuid.New()
	started, err := h.svc.StartInitialReviews(ctx, h.userID, []uuid.UUID{skippedID, removedID, fresh})
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, fresh, started[0].ItemID)
}

func TestStartInitialReviewTwice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)
	itemID := uuid.New()

	_, err := h.svc.StartInitialReview(ctx, h.userID, itemID)
	require.NoError(t, err)

	_, err = h.svc.StartInitialReview(ctx, h.userID, itemID)
	var stateErr *domain.StateError
	require.True(t, errors.As(err, &stateErr))
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
}

func TestSkipInitialReview(t *testing.T) {
	ctx := context.Background()
	cfg := settingsConfig()
	cfg.DailyLimit = 1
	h := newHarness(t, cfg, day0)
	itemID := uuid.New()

	skipped, err := h.svc.SkipInitialReview(ctx, h.userID, itemID)
	require.NoError(t, err)
	assert.True(t, skipped.RemovedFromReview)

	quota, err := h.svc.RemainingQuota(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, 0, quota.Remaining)

	// Skipping is not blocked by an exhausted quota.
	_, err = h.svc.SkipInitialReview(ctx, h.userID, uuid.New())
	require.NoError(t, err)

	h.clock.Set(day(30))
	_, err = h.svc.NextDueItem(ctx, h.userID)
	assert.ErrorIs(t, err, review.ErrNoItemsDue)

	_, err = h.svc.ApplyOutcome(ctx, h.userID, itemID, domain.ReviewOutcomeHappy)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = h.svc.StartInitialReview(ctx, h.userID, itemID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRemoveFromReviewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)
	itemID := uuid.New()

	_, err := h.svc.StartInitialReview(ctx, h.userID, itemID)
	require.NoError(t, err)

	first, err := h.svc.RemoveFromReview(ctx, h.userID, itemID)
	require.NoError(t, err)
	assert.True(t, first.RemovedFromReview)

	h.clock.Advance(time.Hour)
	second, err := h.svc.RemoveFromReview(ctx, h.userID, itemID)
	require.NoError(t, err)
	assert.Equal(t, *first, *second)

	assert.Equal(t, []string{events.TypeInitialStarted, events.TypeRemoved}, h.events.types())

	_, err = h.svc.RemoveFromReview(ctx, h.userID, uuid.New())
	assert.ErrorIs(t, err, review.ErrReviewPointNotFound)
}

func TestApplyOutcomeRejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)

	_, err := h.svc.ApplyOutcome(ctx, h.userID, uuid.New(), domain.ReviewOutcomeHappy)
	assert.ErrorIs(t, err, review.ErrReviewPointNotFound)

	_, err = h.svc.ApplyOutcome(ctx, h.userID, uuid.New(), "meh")
	assert.ErrorIs(t, err, review.ErrInvalidOutcome)

	_, err = h.svc.ApplyOutcome(ctx, uuid.Nil, uuid.New(), domain.ReviewOutcomeHappy)
	assert.ErrorIs(t, err, review.ErrInvalidID)

	assert.Empty(t, h.events.types())
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)

	items := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range items {
		_, err := h.svc.StartInitialReview(ctx, h.userID, id)
		require.NoError(t, err)
	}
	_, err := h.svc.RemoveFromReview(ctx, h.userID, items[0])
	require.NoError(t, err)

	h.clock.Set(day(1))
	_, err = h.svc.ApplyOutcome(ctx, h.userID, items[1], domain.ReviewOutcomeHappy)
	require.NoError(t, err)

	stats, err := h.svc.Stats(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, review.Stats{
		Learnt:         3,
		Removed:        1,
		Active:         2,
		DueNow:         1,
		RemainingQuota: 5,
	}, *stats)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, settingsConfig(), day0)

	defaults, err := h.svc.GetSettings(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, h.userID, defaults.UserID())
	assert.Equal(t, settingsConfig(), defaults.Config())

	invalid := settingsConfig()
	invalid.Intervals = "1,0"
	_, err = h.svc.UpdateSettings(ctx, h.userID, invalid)
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "intervals", cfgErr.Field)

	custom := settingsConfig()
	custom.Intervals = "2,4"
	custom.DailyLimit = 1
	updated, err := h.svc.UpdateSettings(ctx, h.userID, custom)
	require.NoError(t, err)
	assert.Equal(t, custom, updated.Config())

	stored, err := h.svc.GetSettings(ctx, h.userID)
	require.NoError(t, err)
	assert.Equal(t, custom, stored.Config())

	point, err := h.svc.StartInitialReview(ctx, h.userID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, day(2), point.NextReviewAt)

	_, err = h.svc.StartInitialReview(ctx, h.userID, uuid.New())
	assert.ErrorIs(t, err, review.ErrQuotaExhausted)
}

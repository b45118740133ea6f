// Package storetest holds behavioural tests shared by every implementation
// of the internal/store interfaces.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns fresh, isolated stores for one test.
type Factory func(t *testing.T) (store.ReviewPointStore, store.ReviewSettingsStore)

var base = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newPoint(userID uuid.UUID, next time.Time) domain.ReviewPoint {
	return domain.ReviewPoint{
		UserID:            userID,
		ItemID:            uuid.New(),
		RepetitionCount:   0,
		InitialReviewedAt: base,
		LastReviewedAt:    base,
		NextReviewAt:      next,
		CreatedAt:         base,
		UpdatedAt:         base,
	}
}

func assertSamePoint(t *testing.T, want domain.ReviewPoint, got *domain.ReviewPoint) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.UserID, got.UserID)
	assert.Equal(t, want.ItemID, got.ItemID)
	assert.Equal(t, want.RepetitionCount, got.RepetitionCount)
	assert.Equal(t, want.RemovedFromReview, got.RemovedFromReview)
	assert.True(t, want.InitialReviewedAt.Equal(got.InitialReviewedAt), "initial_reviewed_at")
	assert.True(t, want.LastReviewedAt.Equal(got.LastReviewedAt), "last_reviewed_at")
	assert.True(t, want.NextReviewAt.Equal(got.NextReviewAt), "next_review_at")
}

// RunReviewPointStoreTests exercises a store.ReviewPointStore implementation.
func RunReviewPointStoreTests(t *testing.T, newStores Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		points, _ := newStores(t)
		p := newPoint(uuid.New(), base.AddDate(0, 0, 1))

		require.NoError(t, points.Create(ctx, &p))

		got, err := points.Get(ctx, p.UserID, p.ItemID)
		require.NoError(t, err)
		assertSamePoint(t, p, got)

		locked, err := points.GetForUpdate(ctx, p.UserID, p.ItemID)
		require.NoError(t, err)
		assertSamePoint(t, p, locked)
	})

	t.Run("duplicate create", func(t *testing.T) {
		points, _ := newStores(t)
		p := newPoint(uuid.New(), base.AddDate(0, 0, 1))
		require.NoError(t, points.Create(ctx, &p))

		err := points.Create(ctx, &p)
		assert.ErrorIs(t, err, store.ErrReviewPointExists)
		assert.True(t, store.IsDuplicateError(err))

		// The rejected insert leaves the connection or transaction usable.
		got, err := points.Get(ctx, p.UserID, p.ItemID)
		require.NoError(t, err)
		assertSamePoint(t, p, got)
	})

	t.Run("invalid point rejected", func(t *testing.T) {
		points, _ := newStores(t)
		p := newPoint(uuid.New(), base)
		p.RepetitionCount = -1

		assert.ErrorIs(t, points.Create(ctx, &p), store.ErrInvalidEntity)
	})

	t.Run("get missing", func(t *testing.T) {
		points, _ := newStores(t)

		_, err := points.Get(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, store.ErrReviewPointNotFound)

		_, err = points.GetForUpdate(ctx, uuid.New(), uuid.New())
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("update", func(t *testing.T) {
		points, _ := newStores(t)
		p := newPoint(uuid.New(), base.AddDate(0, 0, 1))
		require.NoError(t, points.Create(ctx, &p))

		updated := p
		updated.RepetitionCount = 3
		updated.LastReviewedAt = base.AddDate(0, 0, 1)
		updated.NextReviewAt = base.AddDate(0, 0, 8)
		updated.UpdatedAt = base.AddDate(0, 0, 1)
		updated.InitialReviewedAt = base.AddDate(0, 0, 5)
		require.NoError(t, points.Update(ctx, &updated))

		got, err := points.Get(ctx, p.UserID, p.ItemID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.RepetitionCount)
		assert.True(t, got.NextReviewAt.Equal(updated.NextReviewAt))
		assert.True(t, got.InitialReviewedAt.Equal(p.InitialReviewedAt), "initial review time is immutable")
	})

	t.Run("removal is permanent", func(t *testing.T) {
		points, _ := newStores(t)
		p := newPoint(uuid.New(), base.AddDate(0, 0, 1))
		p.RemovedFromReview = true
		require.NoError(t, points.Create(ctx, &p))

		restored := p
		restored.RemovedFromReview = false
		require.NoError(t, points.Update(ctx, &restored))

		got, err := points.Get(ctx, p.UserID, p.ItemID)
		require.NoError(t, err)
		assert.True(t, got.RemovedFromReview)
	})

	t.Run("update missing", func(t *testing.T) {
		points, _ := newStores(t)
		p := newPoint(uuid.New(), base)

		assert.ErrorIs(t, points.Update(ctx, &p), store.ErrReviewPointNotFound)
	})

	t.Run("find active for user", func(t *testing.T) {
		points, _ := newStores(t)
		userID := uuid.New()

		later := newPoint(userID, base.AddDate(0, 0, 3))
		sooner := newPoint(userID, base.AddDate(0, 0, 1))
		tieLow := newPoint(userID, base.AddDate(0, 0, 2))
		tieHigh := newPoint(userID, base.AddDate(0, 0, 2))
		tieLow.ItemID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
		tieHigh.ItemID = uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
		removed := newPoint(userID, base)
		removed.RemovedFromReview = true
		otherUser := newPoint(uuid.New(), base)

		for _, p := range []domain.ReviewPoint{later, tieHigh, removed, sooner, otherUser, tieLow} {
			p := p
			require.NoError(t, points.Create(ctx, &p))
		}

		active, err := points.FindActiveForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, active, 4)
		assert.Equal(t, sooner.ItemID, active[0].ItemID)
		assert.Equal(t, tieLow.ItemID, active[1].ItemID)
		assert.Equal(t, tieHigh.ItemID, active[2].ItemID)
		assert.Equal(t, later.ItemID, active[3].ItemID)

		none, err := points.FindActiveForUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("count initial reviews in range", func(t *testing.T) {
		points, _ := newStores(t)
		userID := uuid.New()
		start := base
		end := base.AddDate(0, 0, 1)

		atStart := newPoint(userID, end)
		atStart.InitialReviewedAt = start
		inside := newPoint(userID, end)
		inside.InitialReviewedAt = start.Add(5 * time.Hour)
		skipped := newPoint(userID, end)
		skipped.InitialReviewedAt = start.Add(6 * time.Hour)
		skipped.RemovedFromReview = true
		atEnd := newPoint(userID, end)
		atEnd.InitialReviewedAt = end
		before := newPoint(userID, end)
		before.InitialReviewedAt = start.Add(-time.Second)

		for _, p := range []domain.ReviewPoint{atStart, inside, skipped, atEnd, before} {
			p := p
			require.NoError(t, points.Create(ctx, &p))
		}

		count, err := points.CountInitialReviewsInRange(ctx, userID, start, end)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = points.CountInitialReviewsInRange(ctx, uuid.New(), start, end)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("count for user", func(t *testing.T) {
		points, _ := newStores(t)
		userID := uuid.New()

		for i := 0; i < 3; i++ {
			p := newPoint(userID, base)
			p.RemovedFromReview = i == 0
			require.NoError(t, points.Create(ctx, &p))
		}

		counts, err := points.CountForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, store.ReviewPointCounts{Learnt: 3, Removed: 1}, counts)

		empty, err := points.CountForUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, store.ReviewPointCounts{}, empty)
	})

	t.Run("list users with due points", func(t *testing.T) {
		points, _ := newStores(t)
		dueUser := uuid.New()
		futureUser := uuid.New()
		removedUser := uuid.New()
		now := base.AddDate(0, 0, 2)

		due := newPoint(dueUser, now)
		overdue := newPoint(dueUser, base)
		future := newPoint(futureUser, now.Add(time.Second))
		removed := newPoint(removedUser, base)
		removed.RemovedFromReview = true

		for _, p := range []domain.ReviewPoint{due, overdue, future, removed} {
			p := p
			require.NoError(t, points.Create(ctx, &p))
		}

		users, err := points.ListUsersWithDuePoints(ctx, now)
		require.NoError(t, err)
		listed := 0
		for _, id := range users {
			if id == dueUser {
				listed++
			}
		}
		assert.Equal(t, 1, listed, "each due user listed once")
		assert.NotContains(t, users, futureUser)
		assert.NotContains(t, users, removedUser)

		early, err := points.ListUsersWithDuePoints(ctx, base.Add(-time.Hour))
		require.NoError(t, err)
		assert.NotContains(t, early, dueUser)
	})
}

// RunReviewSettingsStoreTests exercises a store.ReviewSettingsStore implementation.
func RunReviewSettingsStoreTests(t *testing.T, newStores Factory) {
	ctx := context.Background()

	cfg := domain.ReviewSettingsConfig{
		Intervals:         "1,3,7,14",
		DailyLimit:        5,
		Timezone:          "Asia/Shanghai",
		SadReset:          "to_zero",
		AgainRetryMinutes: 10,
	}

	t.Run("missing settings", func(t *testing.T) {
		_, settingsStore := newStores(t)

		_, err := settingsStore.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrReviewSettingsNotFound)
	})

	t.Run("upsert inserts then replaces", func(t *testing.T) {
		_, settingsStore := newStores(t)
		userID := uuid.New()

		settings, err := domain.NewReviewSettings(userID, cfg)
		require.NoError(t, err)
		require.NoError(t, settingsStore.Upsert(ctx, settings))

		got, err := settingsStore.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, cfg, *got)

		changed := cfg
		changed.DailyLimit = 20
		changed.SadReset = "decrement_one"
		settings, err = domain.NewReviewSettings(userID, changed)
		require.NoError(t, err)
		require.NoError(t, settingsStore.Upsert(ctx, settings))

		got, err = settingsStore.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, changed, *got)
	})

	t.Run("unbound settings rejected", func(t *testing.T) {
		_, settingsStore := newStores(t)

		assert.ErrorIs(t, settingsStore.Upsert(ctx, domain.ReviewSettings{}), store.ErrInvalidEntity)

		unbound, err := domain.NewReviewSettings(uuid.Nil, cfg)
		require.NoError(t, err)
		assert.ErrorIs(t, settingsStore.Upsert(ctx, unbound), store.ErrInvalidEntity)
	})
}

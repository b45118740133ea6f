package srs

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Operation names used in domain.StateError values.
const (
	opStartInitialReview = "start_initial_review"
	opRecordOutcome      = "record_outcome"
)

// startInitialReview creates the first review point for (userID, itemID).
//
// existing is the point already stored for the pair, or nil. A live point
// yields ErrAlreadyReviewed; a removed point yields ErrInvalidState because
// removal is permanent and the pair can never be restarted.
//
// When skip is true the new point is created already removed: the item counts
// as started today but never enters the repeat queue.
func startInitialReview(
	existing *domain.ReviewPoint,
	userID uuid.UUID,
	itemID uuid.UUID,
	settings domain.ReviewSettings,
	now time.Time,
	skip bool,
) (domain.ReviewPoint, error) {
	if existing != nil {
		if existing.RemovedFromReview {
			return domain.ReviewPoint{}, domain.NewStateError(
				opStartInitialReview, userID, itemID, domain.ErrInvalidState)
		}
		return domain.ReviewPoint{}, domain.NewStateError(
			opStartInitialReview, userID, itemID, domain.ErrAlreadyReviewed)
	}

	days, err := NextInterval(0, settings.Intervals())
	if err != nil {
		return domain.ReviewPoint{}, err
	}

	now = now.UTC()
	point := domain.ReviewPoint{
		UserID:            userID,
		ItemID:            itemID,
		RepetitionCount:   0,
		InitialReviewedAt: now,
		LastReviewedAt:    now,
		NextReviewAt:      now.AddDate(0, 0, days),
		RemovedFromReview: skip,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := point.Validate(); err != nil {
		return domain.ReviewPoint{}, err
	}
	return point, nil
}

// calculateRepetitionCount returns the repetition count after outcome.
//
//   - AGAIN leaves the count untouched.
//   - SAD rewinds it according to the settings' SadResetStrategy.
//   - HAPPY and SATISFYING both credit exactly one successful repetition.
func calculateRepetitionCount(
	current int,
	outcome domain.ReviewOutcome,
	strategy domain.SadResetStrategy,
) int {
	switch outcome {
	case domain.ReviewOutcomeSad:
		if strategy == domain.SadResetDecrementOne {
			if current > 0 {
				return current - 1
			}
			return 0
		}
		return 0
	case domain.ReviewOutcomeHappy, domain.ReviewOutcomeSatisfying:
		return current + 1
	default:
		return current
	}
}

// calculateNextReviewAt returns when the point becomes due again.
// AGAIN uses the short retry delay; every other outcome looks the new
// repetition count up in the interval table.
func calculateNextReviewAt(
	repetitionCount int,
	outcome domain.ReviewOutcome,
	settings domain.ReviewSettings,
	now time.Time,
) (time.Time, error) {
	if outcome == domain.ReviewOutcomeAgain {
		return now.Add(settings.AgainRetry()), nil
	}

	days, err := NextInterval(repetitionCount, settings.Intervals())
	if err != nil {
		return time.Time{}, err
	}
	return now.AddDate(0, 0, days), nil
}

// recordOutcome returns a copy of point updated for outcome at now.
// The input point is never modified.
func recordOutcome(
	point domain.ReviewPoint,
	outcome domain.ReviewOutcome,
	settings domain.ReviewSettings,
	now time.Time,
) (domain.ReviewPoint, error) {
	if !outcome.Valid() {
		return domain.ReviewPoint{}, domain.ErrInvalidReviewOutcome
	}
	if point.RemovedFromReview {
		return domain.ReviewPoint{}, domain.NewStateError(
			opRecordOutcome, point.UserID, point.ItemID, domain.ErrInvalidState)
	}

	now = now.UTC()
	next := point
	next.RepetitionCount = calculateRepetitionCount(point.RepetitionCount, outcome, settings.SadReset())

	nextReviewAt, err := calculateNextReviewAt(next.RepetitionCount, outcome, settings, now)
	if err != nil {
		return domain.ReviewPoint{}, err
	}

	next.NextReviewAt = nextReviewAt
	next.LastReviewedAt = now
	next.UpdatedAt = now
	return next, nil
}

// removeFromReview returns a copy of point marked as removed.
// The second return value is false when the point was already removed, in
// which case the returned point is identical to the input.
func removeFromReview(point domain.ReviewPoint, now time.Time) (domain.ReviewPoint, bool) {
	if point.RemovedFromReview {
		return point, false
	}
	point.RemovedFromReview = true
	point.UpdatedAt = now.UTC()
	return point, true
}

// selectNextDue returns the due point with the earliest NextReviewAt.
// Ties are broken by ItemID in ascending byte order so the choice is stable
// regardless of input order.
func selectNextDue(points []domain.ReviewPoint, now time.Time) (domain.ReviewPoint, bool) {
	var (
		best  domain.ReviewPoint
		found bool
	)
	for _, p := range points {
		if !p.IsDue(now) {
			continue
		}
		if !found || dueBefore(p, best) {
			best = p
			found = true
		}
	}
	return best, found
}

// dueBefore reports whether a should be reviewed before b.
func dueBefore(a, b domain.ReviewPoint) bool {
	if !a.NextReviewAt.Equal(b.NextReviewAt) {
		return a.NextReviewAt.Before(b.NextReviewAt)
	}
	return bytes.Compare(a.ItemID[:], b.ItemID[:]) < 0
}

// countDue returns how many of points are due at now.
func countDue(points []domain.ReviewPoint, now time.Time) int {
	n := 0
	for _, p := range points {
		if p.IsDue(now) {
			n++
		}
	}
	return n
}

package srs

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Service defines the scheduling decisions of the review engine.
//
// Every method is a pure function of its arguments: callers pass the current
// time explicitly and receive new ReviewPoint values instead of mutating the
// ones they hold. Persisting the result is the caller's job.
type Service interface {
	// StartInitialReview creates the first review point for an item.
	// existing is the point already stored for the pair, or nil.
	// Returns a *domain.StateError wrapping domain.ErrAlreadyReviewed when a
	// live point exists, or domain.ErrInvalidState when the pair was removed.
	StartInitialReview(
		existing *domain.ReviewPoint,
		userID, itemID uuid.UUID,
		settings domain.ReviewSettings,
		now time.Time,
	) (domain.ReviewPoint, error)

	// SkipInitialReview behaves like StartInitialReview but creates the point
	// already removed from review.
	SkipInitialReview(
		existing *domain.ReviewPoint,
		userID, itemID uuid.UUID,
		settings domain.ReviewSettings,
		now time.Time,
	) (domain.ReviewPoint, error)

	// RecordOutcome computes the point's next state for a repeat review outcome.
	// Returns a *domain.StateError wrapping domain.ErrInvalidState for removed points.
	RecordOutcome(
		point domain.ReviewPoint,
		outcome domain.ReviewOutcome,
		settings domain.ReviewSettings,
		now time.Time,
	) (domain.ReviewPoint, error)

	// RemoveFromReview marks the point as permanently removed. It is idempotent:
	// the bool result reports whether anything changed.
	RemoveFromReview(point domain.ReviewPoint, now time.Time) (domain.ReviewPoint, bool)

	// SelectNextDue returns the earliest due, non-removed point.
	// The bool result is false when nothing is due.
	SelectNextDue(points []domain.ReviewPoint, now time.Time) (domain.ReviewPoint, bool)

	// CountDue returns how many points are due at now.
	CountDue(points []domain.ReviewPoint, now time.Time) int

	// Today returns the user's current local calendar day as [start, end).
	Today(settings domain.ReviewSettings, now time.Time) (time.Time, time.Time)

	// RemainingNewItemQuota returns how many new items may still be started today.
	RemainingNewItemQuota(settings domain.ReviewSettings, startedToday int) int
}

// defaultService is the standard implementation of the Service interface.
// All tunables live in domain.ReviewSettings, so it carries no state.
type defaultService struct{}

// Verify interface compliance at compile time
var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new SRS service.
func NewDefaultService() Service {
	return &defaultService{}
}

// StartInitialReview implements Service.
func (s *defaultService) StartInitialReview(
	existing *domain.ReviewPoint,
	userID, itemID uuid.UUID,
	settings domain.ReviewSettings,
	now time.Time,
) (domain.ReviewPoint, error) {
	return startInitialReview(existing, userID, itemID, settings, now, false)
}

// SkipInitialReview implements Service.
func (s *defaultService) SkipInitialReview(
	existing *domain.ReviewPoint,
	userID, itemID uuid.UUID,
	settings domain.ReviewSettings,
	now time.Time,
) (domain.ReviewPoint, error) {
	return startInitialReview(existing, userID, itemID, settings, now, true)
}

// RecordOutcome implements Service.
func (s *defaultService) RecordOutcome(
	point domain.ReviewPoint,
	outcome domain.ReviewOutcome,
	settings domain.ReviewSettings,
	now time.Time,
) (domain.ReviewPoint, error) {
	return recordOutcome(point, outcome, settings, now)
}

// RemoveFromReview implements Service.
func (s *defaultService) RemoveFromReview(point domain.ReviewPoint, now time.Time) (domain.ReviewPoint, bool) {
	return removeFromReview(point, now)
}

// SelectNextDue implements Service.
func (s *defaultService) SelectNextDue(points []domain.ReviewPoint, now time.Time) (domain.ReviewPoint, bool) {
	return selectNextDue(points, now)
}

// CountDue implements Service.
func (s *defaultService) CountDue(points []domain.ReviewPoint, now time.Time) int {
	return countDue(points, now)
}

// Today implements Service.
func (s *defaultService) Today(settings domain.ReviewSettings, now time.Time) (time.Time, time.Time) {
	return DayBounds(now, settings.Location())
}

// RemainingNewItemQuota implements Service.
func (s *defaultService) RemainingNewItemQuota(settings domain.ReviewSettings, startedToday int) int {
	return RemainingNewItemQuota(settings.DailyLimit(), startedToday)
}

package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Quota describes the user's new-item admission state for the current local day.
type Quota struct {
	DailyLimit   int       `json:"daily_limit"`
	StartedToday int       `json:"started_today"`
	Remaining    int       `json:"remaining"`
	DayStart     time.Time `json:"day_start"`
	DayEnd       time.Time `json:"day_end"`
}

// Stats summarises a user's review history.
type Stats struct {
	// Learnt counts every item that ever had an initial review, removed ones included.
	Learnt  int `json:"learnt"`
	Removed int `json:"removed"`
	Active  int `json:"active"`
	DueNow  int `json:"due_now"`
	// RemainingQuota is the number of new items that may still be started today.
	RemainingQuota int `json:"remaining_quota"`
}

// ReviewService is the scheduler API exposed to the transport layer.
type ReviewService interface {
	// NextDueItem returns the review point that should be shown now.
	// Returns ErrNoItemsDue when nothing is due.
	NextDueItem(ctx context.Context, userID uuid.UUID) (*domain.ReviewPoint, error)

	// RemainingQuota reports how many never-reviewed items the user may still
	// start today in their own timezone.
	RemainingQuota(ctx context.Context, userID uuid.UUID) (*Quota, error)

	// ApplyOutcome records a repeat review outcome for the item.
	//
	// Returns:
	//   - ErrInvalidOutcome for unknown outcomes
	//   - ErrReviewPointNotFound when the item was never started
	//   - a *domain.StateError when the point was removed from review
	ApplyOutcome(
		ctx context.Context,
		userID, itemID uuid.UUID,
		outcome domain.ReviewOutcome,
	) (*domain.ReviewPoint, error)

	// StartInitialReview creates the first review point for a never-reviewed item.
	// Returns ErrQuotaExhausted when today's new-item quota is used up, and a
	// *domain.StateError when a point already exists.
	StartInitialReview(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)

	// StartInitialReviews starts items in order until the quota runs out.
	// Items that already have a review point are passed over. Returns
	// ErrQuotaExhausted only when the quota was empty from the start.
	StartInitialReviews(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]domain.ReviewPoint, error)

	// SkipInitialReview records an initial review for an item the learner
	// never wants to see, creating its point already removed. The skip is not
	// blocked by the quota but counts against it.
	SkipInitialReview(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)

	// RemoveFromReview permanently removes the item from repetition. Removing
	// an already removed item succeeds without changes.
	RemoveFromReview(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)

	// Stats summarises the user's review history and today's backlog.
	Stats(ctx context.Context, userID uuid.UUID) (*Stats, error)

	// GetSettings returns the user's stored settings, or the configured
	// defaults when the user never saved any.
	GetSettings(ctx context.Context, userID uuid.UUID) (domain.ReviewSettings, error)

	// UpdateSettings validates and stores the user's settings.
	// Returns a *domain.ConfigurationError when cfg is invalid.
	UpdateSettings(
		ctx context.Context,
		userID uuid.UUID,
		cfg domain.ReviewSettingsConfig,
	) (domain.ReviewSettings, error)
}

// Sentinel errors returned by ReviewService.
var (
	// ErrNoItemsDue indicates that the user has nothing due for review.
	ErrNoItemsDue = errors.New("no items due for review")

	// ErrQuotaExhausted indicates the daily new-item quota is used up.
	ErrQuotaExhausted = errors.New("daily new item quota reached")

	// ErrReviewPointNotFound indicates the item has never been reviewed by the user.
	ErrReviewPointNotFound = errors.New("review point not found")

	// ErrInvalidOutcome indicates an unknown review outcome.
	ErrInvalidOutcome = errors.New("invalid review outcome")

	// ErrInvalidID indicates a nil user or item ID.
	ErrInvalidID = errors.New("invalid identifier")
)

// ServiceError wraps unexpected failures from the review service with the
// operation that produced them. Expected conditions are returned as the
// sentinels above or as domain errors, never as ServiceError.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "apply_outcome")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

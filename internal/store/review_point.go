package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// ReviewPointCounts summarises a user's review points.
type ReviewPointCounts struct {
	// Learnt is every point ever started, including skipped and removed ones.
	Learnt int
	// Removed is the number of points permanently removed from review.
	Removed int
}

// ReviewPointStore defines the interface for review point persistence.
// Review points are never deleted; removal is a flag on the row.
type ReviewPointStore interface {
	// Create saves a new review point after validating it.
	// Returns ErrReviewPointExists if the (user, item) pair already has a point.
	// Returns an error wrapping ErrInvalidEntity if validation fails.
	Create(ctx context.Context, point *domain.ReviewPoint) error

	// Get retrieves the point for (userID, itemID).
	// Returns ErrReviewPointNotFound if none exists.
	// NOTE: This method takes no row lock; use GetForUpdate before writing.
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)

	// GetForUpdate retrieves the point for (userID, itemID) and locks the row
	// until the surrounding transaction ends. It must be called on a store
	// obtained from WithTx.
	// Returns ErrReviewPointNotFound if none exists.
	GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)

	// Update persists the mutable fields of an existing point.
	// Returns ErrReviewPointNotFound if the point does not exist.
	Update(ctx context.Context, point *domain.ReviewPoint) error

	// FindActiveForUser returns every point of the user that has not been
	// removed from review, ordered by next review time then item ID.
	FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]domain.ReviewPoint, error)

	// CountInitialReviewsInRange counts the points whose initial review
	// happened in [start, end). Skipped and removed points are included.
	CountInitialReviewsInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)

	// CountForUser returns the learnt and removed totals for the user.
	CountForUser(ctx context.Context, userID uuid.UUID) (ReviewPointCounts, error)

	// ListUsersWithDuePoints returns the IDs of users that have at least one
	// point due at now, in ascending order.
	ListUsersWithDuePoints(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// WithTx returns a new ReviewPointStore instance that uses the provided transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) ReviewPointStore
}

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// ReviewSettingsStore persists per-user review settings.
type ReviewSettingsStore interface {
	// Get returns the raw settings saved for the user. The values are returned
	// as stored; callers turn them into domain.ReviewSettings, which rejects
	// rows that no longer validate.
	// Returns ErrReviewSettingsNotFound if the user has saved none.
	Get(ctx context.Context, userID uuid.UUID) (*domain.ReviewSettingsConfig, error)

	// Upsert creates or replaces the user's settings.
	Upsert(ctx context.Context, settings domain.ReviewSettings) error

	// WithTx returns a new ReviewSettingsStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewSettingsStore
}

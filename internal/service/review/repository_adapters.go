package review

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// ReviewPointRepository is the review point storage the service needs, plus
// access to the database the transactions run on.
type ReviewPointRepository interface {
	Create(ctx context.Context, point *domain.ReviewPoint) error
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)
	GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)
	Update(ctx context.Context, point *domain.ReviewPoint) error
	FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]domain.ReviewPoint, error)
	CountInitialReviewsInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (store.ReviewPointCounts, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewPointRepository

	// DB returns the underlying database connection.
	DB() *sql.DB
}

// SettingsRepository reads and writes per-user review settings.
type SettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.ReviewSettingsConfig, error)
	Upsert(ctx context.Context, settings domain.ReviewSettings) error
	WithTx(tx *sql.Tx) SettingsRepository
}

// NewReviewPointRepositoryAdapter allows a store.ReviewPointStore to be used
// where a ReviewPointRepository is expected.
func NewReviewPointRepositoryAdapter(pointStore store.ReviewPointStore, db *sql.DB) ReviewPointRepository {
	return &reviewPointRepositoryAdapter{ReviewPointStore: pointStore, db: db}
}

type reviewPointRepositoryAdapter struct {
	store.ReviewPointStore
	db *sql.DB
}

// WithTx implements ReviewPointRepository.WithTx
func (a *reviewPointRepositoryAdapter) WithTx(tx *sql.Tx) ReviewPointRepository {
	return &reviewPointRepositoryAdapter{
		ReviewPointStore: a.ReviewPointStore.WithTx(tx),
		db:               a.db,
	}
}

// DB implements ReviewPointRepository.DB
func (a *reviewPointRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// NewSettingsRepositoryAdapter allows a store.ReviewSettingsStore to be used
// where a SettingsRepository is expected.
func NewSettingsRepositoryAdapter(settingsStore store.ReviewSettingsStore) SettingsRepository {
	return &settingsRepositoryAdapter{ReviewSettingsStore: settingsStore}
}

type settingsRepositoryAdapter struct {
	store.ReviewSettingsStore
}

// WithTx implements SettingsRepository.WithTx
func (a *settingsRepositoryAdapter) WithTx(tx *sql.Tx) SettingsRepository {
	return &settingsRepositoryAdapter{ReviewSettingsStore: a.ReviewSettingsStore.WithTx(tx)}
}

package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// PostgresReviewSettingsStore implements store.ReviewSettingsStore.
type PostgresReviewSettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresReviewSettingsStore creates a new PostgreSQL review settings store.
// If logger is nil, a default logger will be used.
func NewPostgresReviewSettingsStore(db store.DBTX, logger *slog.Logger) *PostgresReviewSettingsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewSettingsStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_settings_store")),
		now:    time.Now,
	}
}

var _ store.ReviewSettingsStore = (*PostgresReviewSettingsStore)(nil)

// WithTx implements store.ReviewSettingsStore.WithTx
func (s *PostgresReviewSettingsStore) WithTx(tx *sql.Tx) store.ReviewSettingsStore {
	return &PostgresReviewSettingsStore{
		db:     tx,
		logger: s.logger,
		now:    s.now,
	}
}

// Get implements store.ReviewSettingsStore.Get
func (s *PostgresReviewSettingsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.ReviewSettingsConfig, error) {
	query := `
		SELECT intervals, daily_limit, timezone, sad_reset, again_retry_minutes
		FROM review_settings
		WHERE user_id = $1
	`
	var cfg domain.ReviewSettingsConfig
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&cfg.Intervals,
		&cfg.DailyLimit,
		&cfg.Timezone,
		&cfg.SadReset,
		&cfg.AgainRetryMinutes,
	)
	if err != nil {
		mapped := MapError(err, store.ErrReviewSettingsNotFound, nil)
		if store.IsNotFoundError(mapped) {
			return nil, mapped
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get review settings",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("review_settings", "get", "query failed", mapped)
	}
	return &cfg, nil
}

// Upsert implements store.ReviewSettingsStore.Upsert
func (s *PostgresReviewSettingsStore) Upsert(ctx context.Context, settings domain.ReviewSettings) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if settings.IsZero() || settings.UserID() == uuid.Nil {
		return store.NewStoreError("review_settings", "upsert", "settings are not bound to a user", store.ErrInvalidEntity)
	}

	cfg := settings.Config()
	now := s.now().UTC()
	query := `
		INSERT INTO review_settings
			(user_id, intervals, daily_limit, timezone, sad_reset, again_retry_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			intervals = EXCLUDED.intervals,
			daily_limit = EXCLUDED.daily_limit,
			timezone = EXCLUDED.timezone,
			sad_reset = EXCLUDED.sad_reset,
			again_retry_minutes = EXCLUDED.again_retry_minutes,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		settings.UserID(),
		cfg.Intervals,
		cfg.DailyLimit,
		cfg.Timezone,
		cfg.SadReset,
		cfg.AgainRetryMinutes,
		now,
	)
	if err != nil {
		log.Error("failed to upsert review settings",
			slog.String("error", err.Error()),
			slog.String("user_id", settings.UserID().String()))
		return store.NewStoreError("review_settings", "upsert", "upsert failed", MapError(err, nil, nil))
	}

	log.Info("review settings saved", slog.String("user_id", settings.UserID().String()))
	return nil
}

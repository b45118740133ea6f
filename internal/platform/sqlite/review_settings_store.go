package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

type reviewSettingsRow struct {
	Intervals         string `db:"intervals"`
	DailyLimit        int    `db:"daily_limit"`
	Timezone          string `db:"timezone"`
	SadReset          string `db:"sad_reset"`
	AgainRetryMinutes int    `db:"again_retry_minutes"`
}

// ReviewSettingsStore implements store.ReviewSettingsStore on SQLite.
type ReviewSettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewReviewSettingsStore creates a SQLite review settings store.
func NewReviewSettingsStore(db store.DBTX, logger *slog.Logger) *ReviewSettingsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewSettingsStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_settings_store"), slog.String("driver", DriverName)),
		now:    time.Now,
	}
}

var _ store.ReviewSettingsStore = (*ReviewSettingsStore)(nil)

// WithTx implements store.ReviewSettingsStore.WithTx
func (s *ReviewSettingsStore) WithTx(tx *sql.Tx) store.ReviewSettingsStore {
	return &ReviewSettingsStore{db: tx, logger: s.logger, now: s.now}
}

// Get implements store.ReviewSettingsStore.Get
func (s *ReviewSettingsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.ReviewSettingsConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intervals, daily_limit, timezone, sad_reset, again_retry_minutes
		FROM review_settings
		WHERE user_id = ?`,
		userID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get review settings",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("review_settings", "get", "query failed", MapError(err, nil, nil))
	}
	defer func() { _ = rows.Close() }()

	var records []reviewSettingsRow
	if err := sqlx.StructScan(rows, &records); err != nil {
		return nil, store.NewStoreError("review_settings", "get", "scan failed", err)
	}
	if len(records) == 0 {
		return nil, store.ErrReviewSettingsNotFound
	}

	r := records[0]
	return &domain.ReviewSettingsConfig{
		Intervals:         r.Intervals,
		DailyLimit:        r.DailyLimit,
		Timezone:          r.Timezone,
		SadReset:          r.SadReset,
		AgainRetryMinutes: r.AgainRetryMinutes,
	}, nil
}

// Upsert implements store.ReviewSettingsStore.Upsert
func (s *ReviewSettingsStore) Upsert(ctx context.Context, settings domain.ReviewSettings) error {
	if settings.IsZero() || settings.UserID() == uuid.Nil {
		return store.NewStoreError("review_settings", "upsert", "settings are not bound to a user", store.ErrInvalidEntity)
	}

	cfg := settings.Config()
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_settings
			(user_id, intervals, daily_limit, timezone, sad_reset, again_retry_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			intervals = excluded.intervals,
			daily_limit = excluded.daily_limit,
			timezone = excluded.timezone,
			sad_reset = excluded.sad_reset,
			again_retry_minutes = excluded.again_retry_minutes,
			updated_at = excluded.updated_at`,
		settings.UserID(),
		cfg.Intervals,
		cfg.DailyLimit,
		cfg.Timezone,
		cfg.SadReset,
		cfg.AgainRetryMinutes,
		now,
		now,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to upsert review settings",
			slog.String("error", err.Error()),
			slog.String("user_id", settings.UserID().String()))
		return store.NewStoreError("review_settings", "upsert", "upsert failed", MapError(err, nil, nil))
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

const reviewPointColumns = `
	user_id, item_id, repetition_count, initial_reviewed_at, last_reviewed_at,
	next_review_at, removed_from_review, created_at, updated_at`

// PostgresReviewPointStore implements the store.ReviewPointStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewPointStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewPointStore creates a new PostgreSQL implementation of the
// ReviewPointStore interface. It accepts a database connection or transaction
// that is initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewPointStore(db store.DBTX, logger *slog.Logger) *PostgresReviewPointStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewPointStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_point_store")),
	}
}

// Ensure PostgresReviewPointStore implements store.ReviewPointStore interface
var _ store.ReviewPointStore = (*PostgresReviewPointStore)(nil)

// WithTx implements store.ReviewPointStore.WithTx
func (s *PostgresReviewPointStore) WithTx(tx *sql.Tx) store.ReviewPointStore {
	return &PostgresReviewPointStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ReviewPointStore.Create
func (s *PostgresReviewPointStore) Create(ctx context.Context, point *domain.ReviewPoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := point.Validate(); err != nil {
		log.Warn("review point validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_points (` + reviewPointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, item_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		point.UserID,
		point.ItemID,
		point.RepetitionCount,
		point.InitialReviewedAt.UTC(),
		point.LastReviewedAt.UTC(),
		point.NextReviewAt.UTC(),
		point.RemovedFromReview,
		point.CreatedAt.UTC(),
		point.UpdatedAt.UTC(),
	)
	if err != nil {
		mapped := MapError(err, store.ErrReviewPointNotFound, store.ErrReviewPointExists)
		log.Error("failed to create review point",
			slog.String("error", err.Error()),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return store.NewStoreError("review_point", "create", "insert failed", mapped)
	}

	// A conflicting row is skipped instead of raising a unique violation,
	// which would abort the caller's transaction.
	if err := CheckRowsAffected(result, store.ErrReviewPointExists); err != nil {
		log.Debug("review point already exists",
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return store.NewStoreError("review_point", "create", "insert skipped", err)
	}

	log.Debug("review point created",
		slog.String("user_id", point.UserID.String()),
		slog.String("item_id", point.ItemID.String()),
		slog.Bool("removed_from_review", point.RemovedFromReview))
	return nil
}

// Get implements store.ReviewPointStore.Get
func (s *PostgresReviewPointStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error) {
	return s.get(ctx, userID, itemID, false)
}

// GetForUpdate implements store.ReviewPointStore.GetForUpdate
// It issues SELECT ... FOR UPDATE, so it only protects the row when the
// store was obtained from WithTx.
func (s *PostgresReviewPointStore) GetForUpdate(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.ReviewPoint, error) {
	return s.get(ctx, userID, itemID, true)
}

func (s *PostgresReviewPointStore) get(
	ctx context.Context,
	userID, itemID uuid.UUID,
	forUpdate bool,
) (*domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + reviewPointColumns + ` FROM review_points WHERE user_id = $1 AND item_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	point, err := scanReviewPoint(s.db.QueryRowContext(ctx, query, userID, itemID))
	if err != nil {
		mapped := MapError(err, store.ErrReviewPointNotFound, nil)
		if store.IsNotFoundError(mapped) {
			log.Debug("review point not found",
				slog.String("user_id", userID.String()),
				slog.String("item_id", itemID.String()))
			return nil, mapped
		}
		log.Error("failed to get review point",
			slog.String("error", err.Error()),
			slog.Bool("for_update", forUpdate),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
		return nil, store.NewStoreError("review_point", "get", "query failed", mapped)
	}
	return point, nil
}

// Update implements store.ReviewPointStore.Update
// The removal flag can only go from false to true and the initial review
// timestamp is never rewritten.
func (s *PostgresReviewPointStore) Update(ctx context.Context, point *domain.ReviewPoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := point.Validate(); err != nil {
		log.Warn("review point validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE review_points
		SET repetition_count = $3,
			last_reviewed_at = $4,
			next_review_at = $5,
			removed_from_review = removed_from_review OR $6,
			updated_at = $7
		WHERE user_id = $1 AND item_id = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		point.UserID,
		point.ItemID,
		point.RepetitionCount,
		point.LastReviewedAt.UTC(),
		point.NextReviewAt.UTC(),
		point.RemovedFromReview,
		point.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to update review point",
			slog.String("error", err.Error()),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return store.NewStoreError("review_point", "update", "update failed", MapError(err, nil, nil))
	}

	if err := CheckRowsAffected(result, store.ErrReviewPointNotFound); err != nil {
		log.Debug("review point not found for update",
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return err
	}
	return nil
}

// FindActiveForUser implements store.ReviewPointStore.FindActiveForUser
func (s *PostgresReviewPointStore) FindActiveForUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewPointColumns + `
		FROM review_points
		WHERE user_id = $1 AND removed_from_review = FALSE
		ORDER BY next_review_at ASC, item_id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query active review points",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("review_point", "find_active", "query failed", MapError(err, nil, nil))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var points []domain.ReviewPoint
	for rows.Next() {
		point, err := scanReviewPoint(rows)
		if err != nil {
			return nil, store.NewStoreError("review_point", "find_active", "scan failed", err)
		}
		points = append(points, *point)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_point", "find_active", "row iteration failed", err)
	}

	log.Debug("loaded active review points",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(points)))
	return points, nil
}

// CountInitialReviewsInRange implements store.ReviewPointStore.CountInitialReviewsInRange
func (s *PostgresReviewPointStore) CountInitialReviewsInRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM review_points
		WHERE user_id = $1 AND initial_reviewed_at >= $2 AND initial_reviewed_at < $3
	`
	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, start.UTC(), end.UTC()).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count initial reviews",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, store.NewStoreError("review_point", "count_initial", "query failed", MapError(err, nil, nil))
	}
	return count, nil
}

// CountForUser implements store.ReviewPointStore.CountForUser
func (s *PostgresReviewPointStore) CountForUser(
	ctx context.Context,
	userID uuid.UUID,
) (store.ReviewPointCounts, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE removed_from_review)
		FROM review_points
		WHERE user_id = $1
	`
	var counts store.ReviewPointCounts
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&counts.Learnt, &counts.Removed); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count review points",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return store.ReviewPointCounts{}, store.NewStoreError(
			"review_point", "count", "query failed", MapError(err, nil, nil))
	}
	return counts, nil
}

// ListUsersWithDuePoints implements store.ReviewPointStore.ListUsersWithDuePoints
func (s *PostgresReviewPointStore) ListUsersWithDuePoints(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT DISTINCT user_id
		FROM review_points
		WHERE removed_from_review = FALSE AND next_review_at <= $1
		ORDER BY user_id
	`
	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		log.Error("failed to list users with due review points", slog.String("error", err.Error()))
		return nil, store.NewStoreError("review_point", "list_due_users", "query failed", MapError(err, nil, nil))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var userIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, store.NewStoreError("review_point", "list_due_users", "scan failed", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_point", "list_due_users", "row iteration failed", err)
	}
	return userIDs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReviewPoint(row rowScanner) (*domain.ReviewPoint, error) {
	var p domain.ReviewPoint
	if err := row.Scan(
		&p.UserID,
		&p.ItemID,
		&p.RepetitionCount,
		&p.InitialReviewedAt,
		&p.LastReviewedAt,
		&p.NextReviewAt,
		&p.RemovedFromReview,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.InitialReviewedAt = p.InitialReviewedAt.UTC()
	p.LastReviewedAt = p.LastReviewedAt.UTC()
	p.NextReviewAt = p.NextReviewAt.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

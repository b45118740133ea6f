package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

const reviewPointColumns = `
	user_id, item_id, repetition_count, initial_reviewed_at, last_reviewed_at,
	next_review_at, removed_from_review, created_at, updated_at`

// reviewPointRow is the column mapping used with sqlx.StructScan.
type reviewPointRow struct {
	UserID            uuid.UUID `db:"user_id"`
	ItemID            uuid.UUID `db:"item_id"`
	RepetitionCount   int       `db:"repetition_count"`
	InitialReviewedAt string    `db:"initial_reviewed_at"`
	LastReviewedAt    string    `db:"last_reviewed_at"`
	NextReviewAt      string    `db:"next_review_at"`
	RemovedFromReview bool      `db:"removed_from_review"`
	CreatedAt         string    `db:"created_at"`
	UpdatedAt         string    `db:"updated_at"`
}

// dueUserRow maps the single column of the due-users query.
type dueUserRow struct {
	UserID uuid.UUID `db:"user_id"`
}

func (r reviewPointRow) toDomain() (domain.ReviewPoint, error) {
	p := domain.ReviewPoint{
		UserID:            r.UserID,
		ItemID:            r.ItemID,
		RepetitionCount:   r.RepetitionCount,
		RemovedFromReview: r.RemovedFromReview,
	}

	var err error
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&p.InitialReviewedAt, r.InitialReviewedAt},
		{&p.LastReviewedAt, r.LastReviewedAt},
		{&p.NextReviewAt, r.NextReviewAt},
		{&p.CreatedAt, r.CreatedAt},
		{&p.UpdatedAt, r.UpdatedAt},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return domain.ReviewPoint{}, err
		}
	}
	return p, nil
}

// ReviewPointStore implements store.ReviewPointStore on SQLite.
type ReviewPointStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewPointStore creates a SQLite review point store over a connection
// or transaction managed by the caller. If logger is nil, a default logger
// will be used.
func NewReviewPointStore(db store.DBTX, logger *slog.Logger) *ReviewPointStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewPointStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_point_store"), slog.String("driver", DriverName)),
	}
}

var _ store.ReviewPointStore = (*ReviewPointStore)(nil)

// WithTx implements store.ReviewPointStore.WithTx
func (s *ReviewPointStore) WithTx(tx *sql.Tx) store.ReviewPointStore {
	return &ReviewPointStore{db: tx, logger: s.logger}
}

// Create implements store.ReviewPointStore.Create
func (s *ReviewPointStore) Create(ctx context.Context, point *domain.ReviewPoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := point.Validate(); err != nil {
		log.Warn("review point validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `INSERT INTO review_points (` + reviewPointColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, item_id) DO NOTHING`
	result, err := s.db.ExecContext(ctx, query,
		point.UserID,
		point.ItemID,
		point.RepetitionCount,
		formatTime(point.InitialReviewedAt),
		formatTime(point.LastReviewedAt),
		formatTime(point.NextReviewAt),
		point.RemovedFromReview,
		formatTime(point.CreatedAt),
		formatTime(point.UpdatedAt),
	)
	if err != nil {
		log.Error("failed to create review point",
			slog.String("error", err.Error()),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return store.NewStoreError("review_point", "create", "insert failed",
			MapError(err, nil, store.ErrReviewPointExists))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("review_point", "create", "rows affected unavailable", err)
	}
	if n == 0 {
		return store.NewStoreError("review_point", "create", "insert skipped", store.ErrReviewPointExists)
	}
	return nil
}

// Get implements store.ReviewPointStore.Get
func (s *ReviewPointStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error) {
	points, err := s.query(ctx, "get",
		`SELECT `+reviewPointColumns+` FROM review_points WHERE user_id = ? AND item_id = ?`,
		userID, itemID)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, store.ErrReviewPointNotFound
	}
	return &points[0], nil
}

// GetForUpdate implements store.ReviewPointStore.GetForUpdate
// SQLite has no row locks; the single pooled connection already keeps the
// surrounding transaction exclusive.
func (s *ReviewPointStore) GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error) {
	return s.Get(ctx, userID, itemID)
}

// Update implements store.ReviewPointStore.Update
func (s *ReviewPointStore) Update(ctx context.Context, point *domain.ReviewPoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := point.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE review_points
		SET repetition_count = ?,
			last_reviewed_at = ?,
			next_review_at = ?,
			removed_from_review = (removed_from_review OR ?),
			updated_at = ?
		WHERE user_id = ? AND item_id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		point.RepetitionCount,
		formatTime(point.LastReviewedAt),
		formatTime(point.NextReviewAt),
		point.RemovedFromReview,
		formatTime(point.UpdatedAt),
		point.UserID,
		point.ItemID,
	)
	if err != nil {
		log.Error("failed to update review point",
			slog.String("error", err.Error()),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
		return store.NewStoreError("review_point", "update", "update failed", MapError(err, nil, nil))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("review_point", "update", "rows affected unavailable", err)
	}
	if n == 0 {
		return store.ErrReviewPointNotFound
	}
	return nil
}

// FindActiveForUser implements store.ReviewPointStore.FindActiveForUser
func (s *ReviewPointStore) FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]domain.ReviewPoint, error) {
	return s.query(ctx, "find_active", `
		SELECT `+reviewPointColumns+`
		FROM review_points
		WHERE user_id = ? AND removed_from_review = 0
		ORDER BY next_review_at ASC, item_id ASC`,
		userID)
}

// CountInitialReviewsInRange implements store.ReviewPointStore.CountInitialReviewsInRange
func (s *ReviewPointStore) CountInitialReviewsInRange(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM review_points
		WHERE user_id = ? AND initial_reviewed_at >= ? AND initial_reviewed_at < ?`,
		userID, formatTime(start), formatTime(end),
	).Scan(&count)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count initial reviews",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, store.NewStoreError("review_point", "count_initial", "query failed", MapError(err, nil, nil))
	}
	return count, nil
}

// CountForUser implements store.ReviewPointStore.CountForUser
func (s *ReviewPointStore) CountForUser(ctx context.Context, userID uuid.UUID) (store.ReviewPointCounts, error) {
	var counts store.ReviewPointCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(removed_from_review), 0)
		FROM review_points
		WHERE user_id = ?`,
		userID,
	).Scan(&counts.Learnt, &counts.Removed)
	if err != nil {
		return store.ReviewPointCounts{}, store.NewStoreError(
			"review_point", "count", "query failed", MapError(err, nil, nil))
	}
	return counts, nil
}

// ListUsersWithDuePoints implements store.ReviewPointStore.ListUsersWithDuePoints
func (s *ReviewPointStore) ListUsersWithDuePoints(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM review_points
		WHERE removed_from_review = 0 AND next_review_at <= ?
		ORDER BY user_id`,
		formatTime(now))
	if err != nil {
		return nil, store.NewStoreError("review_point", "list_due_users", "query failed", MapError(err, nil, nil))
	}
	defer func() { _ = rows.Close() }()

	var records []dueUserRow
	if err := sqlx.StructScan(rows, &records); err != nil {
		return nil, store.NewStoreError("review_point", "list_due_users", "scan failed", err)
	}

	userIDs := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		userIDs = append(userIDs, r.UserID)
	}
	return userIDs, nil
}

func (s *ReviewPointStore) query(ctx context.Context, op, query string, args ...any) ([]domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("review point query failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("review_point", op, "query failed", MapError(err, nil, nil))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var records []reviewPointRow
	if err := sqlx.StructScan(rows, &records); err != nil {
		return nil, store.NewStoreError("review_point", op, "scan failed", err)
	}

	points := make([]domain.ReviewPoint, 0, len(records))
	for _, r := range records {
		p, err := r.toDomain()
		if err != nil {
			return nil, store.NewStoreError("review_point", op, "decode failed", err)
		}
		points = append(points, p)
	}
	return points, nil
}

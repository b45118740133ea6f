package review

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/clock"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
	"github.com/phrazzld/scry-scheduler/internal/events"
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// Verify interface compliance at compile time
var _ ReviewService = (*reviewServiceImpl)(nil)

type reviewServiceImpl struct {
	pointRepo    ReviewPointRepository
	settingsRepo SettingsRepository
	scheduler    srs.Service
	clock        clock.Clock
	defaults     domain.ReviewSettings
	emitter      events.EventEmitter
	logger       *slog.Logger
}

// Deps are the collaborators of the review service. Emitter and Logger are optional.
type Deps struct {
	Points    ReviewPointRepository
	Settings  SettingsRepository
	Scheduler srs.Service
	Clock     clock.Clock
	// Defaults apply to users without stored settings.
	Defaults domain.ReviewSettings
	Emitter  events.EventEmitter
	Logger   *slog.Logger
}

// NewReviewService creates a ReviewService. It panics when a required
// dependency is missing or the default settings are unusable.
func NewReviewService(deps Deps) ReviewService {
	if deps.Points == nil {
		panic("points repository cannot be nil")
	}
	if deps.Settings == nil {
		panic("settings repository cannot be nil")
	}
	if deps.Scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if deps.Clock == nil {
		panic("clock cannot be nil")
	}
	if deps.Defaults.IsZero() {
		panic("default review settings cannot be empty")
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return &reviewServiceImpl{
		pointRepo:    deps.Points,
		settingsRepo: deps.Settings,
		scheduler:    deps.Scheduler,
		clock:        deps.Clock,
		defaults:     deps.Defaults,
		emitter:      deps.Emitter,
		logger:       log.With(slog.String("component", "review_service")),
	}
}

// NextDueItem implements ReviewService.NextDueItem
func (s *reviewServiceImpl) NextDueItem(ctx context.Context, userID uuid.UUID) (*domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if userID == uuid.Nil {
		return nil, ErrInvalidID
	}

	if _, err := s.settingsFor(ctx, s.settingsRepo, userID); err != nil {
		return nil, s.wrap("next_due_item", "failed to resolve settings", err)
	}

	now := s.clock.Now()
	points, err := s.pointRepo.FindActiveForUser(ctx, userID)
	if err != nil {
		log.Error("failed to load active review points",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewServiceError("next_due_item", "failed to load review points", err)
	}

	next, ok := s.scheduler.SelectNextDue(points, now)
	if !ok {
		log.Debug("no items due for review", slog.String("user_id", userID.String()))
		return nil, ErrNoItemsDue
	}

	log.Debug("selected next due item",
		slog.String("user_id", userID.String()),
		slog.String("item_id", next.ItemID.String()),
		slog.Time("next_review_at", next.NextReviewAt))
	return &next, nil
}

// RemainingQuota implements ReviewService.RemainingQuota
func (s *reviewServiceImpl) RemainingQuota(ctx context.Context, userID uuid.UUID) (*Quota, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidID
	}

	settings, err := s.settingsFor(ctx, s.settingsRepo, userID)
	if err != nil {
		return nil, s.wrap("remaining_quota", "failed to resolve settings", err)
	}

	quota, err := s.quota(ctx, s.pointRepo, settings, s.clock.Now())
	if err != nil {
		return nil, s.wrap("remaining_quota", "failed to count initial reviews", err)
	}
	return quota, nil
}

// ApplyOutcome implements ReviewService.ApplyOutcome
func (s *reviewServiceImpl) ApplyOutcome(
	ctx context.Context,
	userID, itemID uuid.UUID,
	outcome domain.ReviewOutcome,
) (*domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, ErrInvalidID
	}
	if !outcome.Valid() {
		log.Warn("invalid review outcome",
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.String("outcome", string(outcome)))
		return nil, ErrInvalidOutcome
	}

	now := s.clock.Now()
	var updated domain.ReviewPoint
	err := s.runInTransaction(ctx, func(ctx context.Context, points ReviewPointRepository, settingsRepo SettingsRepository) error {
		settings, err := s.settingsFor(ctx, settingsRepo, userID)
		if err != nil {
			return err
		}

		point, err := points.GetForUpdate(ctx, userID, itemID)
		if err != nil {
			return err
		}

		updated, err = s.scheduler.RecordOutcome(*point, outcome, settings, now)
		if err != nil {
			return err
		}
		return points.Update(ctx, &updated)
	})
	if err != nil {
		log.Warn("failed to apply review outcome",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()),
			slog.String("outcome", string(outcome)))
		return nil, s.wrap("apply_outcome", "failed to record outcome", err)
	}

	log.Debug("review outcome recorded",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.String("outcome", string(outcome)),
		slog.Int("repetition_count", updated.RepetitionCount),
		slog.Time("next_review_at", updated.NextReviewAt))

	s.emit(ctx, events.TypeOutcomeRecorded, updated, string(outcome), now)
	return &updated, nil
}

// StartInitialReview implements ReviewService.StartInitialReview
func (s *reviewServiceImpl) StartInitialReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.ReviewPoint, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, ErrInvalidID
	}

	now := s.clock.Now()
	var created domain.ReviewPoint
	err := s.runInTransaction(ctx, func(ctx context.Context, points ReviewPointRepository, settingsRepo SettingsRepository) error {
		settings, err := s.settingsFor(ctx, settingsRepo, userID)
		if err != nil {
			return err
		}

		quota, err := s.quota(ctx, points, settings, now)
		if err != nil {
			return err
		}
		if quota.Remaining == 0 {
			return ErrQuotaExhausted
		}

		created, err = s.createInitial(ctx, points, userID, itemID, settings, now, false)
		return err
	})
	if err != nil {
		return nil, s.wrap("start_initial_review", "failed to start initial review", err)
	}

	s.emit(ctx, events.TypeInitialStarted, created, "", now)
	return &created, nil
}

// StartInitialReviews implements ReviewService.StartInitialReviews
func (s *reviewServiceImpl) StartInitialReviews(
	ctx context.Context,
	userID uuid.UUID,
	itemIDs []uuid.UUID,
) ([]domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if userID == uuid.Nil {
		return nil, ErrInvalidID
	}
	for _, id := range itemIDs {
		if id == uuid.Nil {
			return nil, ErrInvalidID
		}
	}
	if len(itemIDs) == 0 {
		return []domain.ReviewPoint{}, nil
	}

	now := s.clock.Now()
	var started []domain.ReviewPoint
	err := s.runInTransaction(ctx, func(ctx context.Context, points ReviewPointRepository, settingsRepo SettingsRepository) error {
		started = started[:0]

		settings, err := s.settingsFor(ctx, settingsRepo, userID)
		if err != nil {
			return err
		}

		quota, err := s.quota(ctx, points, settings, now)
		if err != nil {
			return err
		}
		if quota.Remaining == 0 {
			return ErrQuotaExhausted
		}

		for _, itemID := range itemIDs {
			if len(started) == quota.Remaining {
				break
			}
			point, err := s.createInitial(ctx, points, userID, itemID, settings, now, false)
			var stateErr *domain.StateError
			if errors.As(err, &stateErr) {
				log.Debug("item already has a review point",
					slog.String("user_id", userID.String()),
					slog.String("item_id", itemID.String()))
				continue
			}
			if err != nil {
				return err
			}
			started = append(started, point)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("start_initial_reviews", "failed to start initial reviews", err)
	}

	log.Debug("initial reviews started",
		slog.String("user_id", userID.String()),
		slog.Int("requested", len(itemIDs)),
		slog.Int("started", len(started)))

	for _, p := range started {
		s.emit(ctx, events.TypeInitialStarted, p, "", now)
	}
	return started, nil
}

// SkipInitialReview implements ReviewService.SkipInitialReview
func (s *reviewServiceImpl) SkipInitialReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.ReviewPoint, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, ErrInvalidID
	}

	now := s.clock.Now()
	var created domain.ReviewPoint
	err := s.runInTransaction(ctx, func(ctx context.Context, points ReviewPointRepository, settingsRepo SettingsRepository) error {
		settings, err := s.settingsFor(ctx, settingsRepo, userID)
		if err != nil {
			return err
		}
		created, err = s.createInitial(ctx, points, userID, itemID, settings, now, true)
		return err
	})
	if err != nil {
		return nil, s.wrap("skip_initial_review", "failed to skip initial review", err)
	}

	s.emit(ctx, events.TypeInitialStarted, created, "", now)
	return &created, nil
}

// RemoveFromReview implements ReviewService.RemoveFromReview
func (s *reviewServiceImpl) RemoveFromReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.ReviewPoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, ErrInvalidID
	}

	now := s.clock.Now()
	var (
		removed domain.ReviewPoint
		changed bool
	)
	err := s.runInTransaction(ctx, func(ctx context.Context, points ReviewPointRepository, _ SettingsRepository) error {
		point, err := points.GetForUpdate(ctx, userID, itemID)
		if err != nil {
			return err
		}

		removed, changed = s.scheduler.RemoveFromReview(*point, now)
		if !changed {
			return nil
		}
		return points.Update(ctx, &removed)
	})
	if err != nil {
		return nil, s.wrap("remove_from_review", "failed to remove from review", err)
	}

	log.Debug("review point removed",
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()),
		slog.Bool("changed", changed))

	if changed {
		s.emit(ctx, events.TypeRemoved, removed, "", now)
	}
	return &removed, nil
}

// Stats implements ReviewService.Stats
func (s *reviewServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidID
	}

	now := s.clock.Now()
	settings, err := s.settingsFor(ctx, s.settingsRepo, userID)
	if err != nil {
		return nil, s.wrap("stats", "failed to resolve settings", err)
	}

	counts, err := s.pointRepo.CountForUser(ctx, userID)
	if err != nil {
		return nil, s.wrap("stats", "failed to count review points", err)
	}

	active, err := s.pointRepo.FindActiveForUser(ctx, userID)
	if err != nil {
		return nil, s.wrap("stats", "failed to load review points", err)
	}

	quota, err := s.quota(ctx, s.pointRepo, settings, now)
	if err != nil {
		return nil, s.wrap("stats", "failed to count initial reviews", err)
	}

	return &Stats{
		Learnt:         counts.Learnt,
		Removed:        counts.Removed,
		Active:         len(active),
		DueNow:         s.scheduler.CountDue(active, now),
		RemainingQuota: quota.Remaining,
	}, nil
}

// GetSettings implements ReviewService.GetSettings
func (s *reviewServiceImpl) GetSettings(ctx context.Context, userID uuid.UUID) (domain.ReviewSettings, error) {
	if userID == uuid.Nil {
		return domain.ReviewSettings{}, ErrInvalidID
	}

	settings, err := s.settingsFor(ctx, s.settingsRepo, userID)
	if err != nil {
		return domain.ReviewSettings{}, s.wrap("get_settings", "failed to resolve settings", err)
	}
	return settings, nil
}

// UpdateSettings implements ReviewService.UpdateSettings
func (s *reviewServiceImpl) UpdateSettings(
	ctx context.Context,
	userID uuid.UUID,
	cfg domain.ReviewSettingsConfig,
) (domain.ReviewSettings, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if userID == uuid.Nil {
		return domain.ReviewSettings{}, ErrInvalidID
	}

	settings, err := domain.NewReviewSettings(userID, cfg)
	if err != nil {
		log.Warn("rejected review settings",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.ReviewSettings{}, err
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return domain.ReviewSettings{}, s.wrap("update_settings", "failed to store settings", err)
	}

	log.Info("review settings updated",
		slog.String("user_id", userID.String()),
		slog.String("intervals", settings.Intervals().String()),
		slog.Int("daily_limit", settings.DailyLimit()),
		slog.String("timezone", settings.Location().String()))
	return settings, nil
}

// settingsFor returns the user's stored settings or the defaults bound to the user.
func (s *reviewServiceImpl) settingsFor(
	ctx context.Context,
	repo SettingsRepository,
	userID uuid.UUID,
) (domain.ReviewSettings, error) {
	cfg, err := repo.Get(ctx, userID)
	if errors.Is(err, store.ErrReviewSettingsNotFound) {
		return s.defaults.ForUser(userID), nil
	}
	if err != nil {
		return domain.ReviewSettings{}, err
	}

	settings, err := domain.NewReviewSettings(userID, *cfg)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("stored review settings are invalid",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.ReviewSettings{}, err
	}
	return settings, nil
}

func (s *reviewServiceImpl) quota(
	ctx context.Context,
	points ReviewPointRepository,
	settings domain.ReviewSettings,
	now time.Time,
) (*Quota, error) {
	start, end := s.scheduler.Today(settings, now)
	started, err := points.CountInitialReviewsInRange(ctx, settings.UserID(), start, end)
	if err != nil {
		return nil, err
	}

	return &Quota{
		DailyLimit:   settings.DailyLimit(),
		StartedToday: started,
		Remaining:    s.scheduler.RemainingNewItemQuota(settings, started),
		DayStart:     start,
		DayEnd:       end,
	}, nil
}

func (s *reviewServiceImpl) createInitial(
	ctx context.Context,
	points ReviewPointRepository,
	userID, itemID uuid.UUID,
	settings domain.ReviewSettings,
	now time.Time,
	skip bool,
) (domain.ReviewPoint, error) {
	existing, err := points.GetForUpdate(ctx, userID, itemID)
	if err != nil && !errors.Is(err, store.ErrReviewPointNotFound) {
		return domain.ReviewPoint{}, err
	}

	var point domain.ReviewPoint
	if skip {
		point, err = s.scheduler.SkipInitialReview(existing, userID, itemID, settings, now)
	} else {
		point, err = s.scheduler.StartInitialReview(existing, userID, itemID, settings, now)
	}
	if err != nil {
		return domain.ReviewPoint{}, err
	}

	if err := points.Create(ctx, &point); err != nil {
		if errors.Is(err, store.ErrReviewPointExists) {
			return domain.ReviewPoint{}, domain.NewStateError("start_initial_review", userID, itemID, domain.ErrAlreadyReviewed)
		}
		return domain.ReviewPoint{}, err
	}
	return point, nil
}

// runInTransaction runs fn with repositories bound to one transaction.
func (s *reviewServiceImpl) runInTransaction(
	ctx context.Context,
	fn func(context.Context, ReviewPointRepository, SettingsRepository) error,
) error {
	return store.RunInTransaction(ctx, s.pointRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.pointRepo.WithTx(tx), s.settingsRepo.WithTx(tx))
	})
}

// wrap passes expected errors through and wraps everything else in a ServiceError.
func (s *reviewServiceImpl) wrap(op, message string, err error) error {
	var (
		stateErr  *domain.StateError
		configErr *domain.ConfigurationError
	)
	switch {
	case errors.Is(err, store.ErrReviewPointNotFound):
		return ErrReviewPointNotFound
	case errors.Is(err, ErrQuotaExhausted),
		errors.Is(err, ErrNoItemsDue),
		errors.Is(err, ErrInvalidOutcome),
		errors.As(err, &stateErr),
		errors.As(err, &configErr):
		return err
	default:
		return NewServiceError(op, message, err)
	}
}

func (s *reviewServiceImpl) emit(
	ctx context.Context,
	eventType string,
	point domain.ReviewPoint,
	outcome string,
	now time.Time,
) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(eventType, point.UserID, events.ReviewPointPayload{
		ItemID:          point.ItemID,
		Outcome:         outcome,
		RepetitionCount: point.RepetitionCount,
		NextReviewAt:    point.NextReviewAt,
		Removed:         point.RemovedFromReview,
	}, now)
	if err != nil {
		log.Error("failed to build review event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit review event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType),
			slog.String("user_id", point.UserID.String()),
			slog.String("item_id", point.ItemID.String()))
	}
}

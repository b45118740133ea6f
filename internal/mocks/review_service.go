package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/service/review"
)

// MockReviewService implements review.ReviewService for testing.
// Methods without a configured function return Err and zero values.
type MockReviewService struct {
	NextDueItemFn         func(ctx context.Context, userID uuid.UUID) (*domain.ReviewPoint, error)
	RemainingQuotaFn      func(ctx context.Context, userID uuid.UUID) (*review.Quota, error)
	ApplyOutcomeFn        func(ctx context.Context, userID, itemID uuid.UUID, outcome domain.ReviewOutcome) (*domain.ReviewPoint, error)
	StartInitialReviewFn  func(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)
	StartInitialReviewsFn func(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]domain.ReviewPoint, error)
	SkipInitialReviewFn   func(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)
	RemoveFromReviewFn    func(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error)
	StatsFn               func(ctx context.Context, userID uuid.UUID) (*review.Stats, error)
	GetSettingsFn         func(ctx context.Context, userID uuid.UUID) (domain.ReviewSettings, error)
	UpdateSettingsFn      func(ctx context.Context, userID uuid.UUID, cfg domain.ReviewSettingsConfig) (domain.ReviewSettings, error)

	// Err is returned by methods that have no custom function.
	Err error

	mu    sync.Mutex
	calls map[string]int
}

var _ review.ReviewService = (*MockReviewService)(nil)

func (m *MockReviewService) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

// Calls returns how many times the named method was invoked.
func (m *MockReviewService) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// NextDueItem implements review.ReviewService.
func (m *MockReviewService) NextDueItem(ctx context.Context, userID uuid.UUID) (*domain.ReviewPoint, error) {
	m.record("NextDueItem")
	if m.NextDueItemFn != nil {
		return m.NextDueItemFn(ctx, userID)
	}
	return nil, m.Err
}

// RemainingQuota implements review.ReviewService.
func (m *MockReviewService) RemainingQuota(ctx context.Context, userID uuid.UUID) (*review.Quota, error) {
	m.record("RemainingQuota")
	if m.RemainingQuotaFn != nil {
		return m.RemainingQuotaFn(ctx, userID)
	}
	return nil, m.Err
}

// ApplyOutcome implements review.ReviewService.
func (m *MockReviewService) ApplyOutcome(
	ctx context.Context,
	userID, itemID uuid.UUID,
	outcome domain.ReviewOutcome,
) (*domain.ReviewPoint, error) {
	m.record("ApplyOutcome")
	if m.ApplyOutcomeFn != nil {
		return m.ApplyOutcomeFn(ctx, userID, itemID, outcome)
	}
	return nil, m.Err
}

// StartInitialReview implements review.ReviewService.
func (m *MockReviewService) StartInitialReview(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error) {
	m.record("StartInitialReview")
	if m.StartInitialReviewFn != nil {
		return m.StartInitialReviewFn(ctx, userID, itemID)
	}
	return nil, m.Err
}

// StartInitialReviews implements review.ReviewService.
func (m *MockReviewService) StartInitialReviews(
	ctx context.Context,
	userID uuid.UUID,
	itemIDs []uuid.UUID,
) ([]domain.ReviewPoint, error) {
	m.record("StartInitialReviews")
	if m.StartInitialReviewsFn != nil {
		return m.StartInitialReviewsFn(ctx, userID, itemIDs)
	}
	return nil, m.Err
}

// SkipInitialReview implements review.ReviewService.
func (m *MockReviewService) SkipInitialReview(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error) {
	m.record("SkipInitialReview")
	if m.SkipInitialReviewFn != nil {
		return m.SkipInitialReviewFn(ctx, userID, itemID)
	}
	return nil, m.Err
}

// RemoveFromReview implements review.ReviewService.
func (m *MockReviewService) RemoveFromReview(ctx context.Context, userID, itemID uuid.UUID) (*domain.ReviewPoint, error) {
	m.record("RemoveFromReview")
	if m.RemoveFromReviewFn != nil {
		return m.RemoveFromReviewFn(ctx, userID, itemID)
	}
	return nil, m.Err
}

// Stats implements review.ReviewService.
func (m *MockReviewService) Stats(ctx context.Context, userID uuid.UUID) (*review.Stats, error) {
	m.record("Stats")
	if m.StatsFn != nil {
		return m.StatsFn(ctx, userID)
	}
	return nil, m.Err
}

// GetSettings implements review.ReviewService.
func (m *MockReviewService) GetSettings(ctx context.Context, userID uuid.UUID) (domain.ReviewSettings, error) {
	m.record("GetSettings")
	if m.GetSettingsFn != nil {
		return m.GetSettingsFn(ctx, userID)
	}
	return domain.ReviewSettings{}, m.Err
}

// UpdateSettings implements review.ReviewService.
func (m *MockReviewService) UpdateSettings(
	ctx context.Context,
	userID uuid.UUID,
	cfg domain.ReviewSettingsConfig,
) (domain.ReviewSettings, error) {
	m.record("UpdateSettings")
	if m.UpdateSettingsFn != nil {
		return m.UpdateSettingsFn(ctx, userID, cfg)
	}
	return domain.ReviewSettings{}, m.Err
}

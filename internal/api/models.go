package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// StartInitialReviewsRequest lists never-reviewed items to admit, in order.
type StartInitialReviewsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" validate:"required,min=1,max=100"`
}

// SkipInitialReviewRequest names an item whose initial review is skipped.
type SkipInitialReviewRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
}

// OutcomeRequest carries the learner's answer for a repeat review.
type OutcomeRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=again sad happy satisfying"`
}

// UpdateSettingsRequest replaces the user's review settings. Field syntax is
// checked here; the domain checks the values themselves, such as whether the
// timezone exists.
type UpdateSettingsRequest struct {
	Intervals         string `json:"intervals"           validate:"required"`
	DailyLimit        int    `json:"daily_limit"         validate:"required,gt=0"`
	Timezone          string `json:"timezone"            validate:"required"`
	SadReset          string `json:"sad_reset"           validate:"required,oneof=to_zero decrement_one"`
	AgainRetryMinutes int    `json:"again_retry_minutes" validate:"required,gt=0"`
}

// ToConfig converts the request into the domain's raw settings form.
func (r UpdateSettingsRequest) ToConfig() domain.ReviewSettingsConfig {
	return domain.ReviewSettingsConfig{
		Intervals:         r.Intervals,
		DailyLimit:        r.DailyLimit,
		Timezone:          r.Timezone,
		SadReset:          r.SadReset,
		AgainRetryMinutes: r.AgainRetryMinutes,
	}
}

// ReviewPointResponse is the API view of a review point.
type ReviewPointResponse struct {
	ItemID            string     `json:"item_id"`
	RepetitionCount   int        `json:"repetition_count"`
	InitialReviewedAt time.Time  `json:"initial_reviewed_at"`
	LastReviewedAt    *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt      time.Time  `json:"next_review_at"`
	RemovedFromReview bool       `json:"removed_from_review"`
}

// StartInitialReviewsResponse lists the points that were started.
type StartInitialReviewsResponse struct {
	Started []ReviewPointResponse `json:"started"`
}

// SettingsResponse is the API view of a user's review settings.
type SettingsResponse struct {
	domain.ReviewSettingsConfig
}

// pointToResponse converts a domain.ReviewPoint to a ReviewPointResponse
func pointToResponse(p domain.ReviewPoint) ReviewPointResponse {
	resp := ReviewPointResponse{
		ItemID:            p.ItemID.String(),
		RepetitionCount:   p.RepetitionCount,
		InitialReviewedAt: p.InitialReviewedAt,
		NextReviewAt:      p.NextReviewAt,
		RemovedFromReview: p.RemovedFromReview,
	}
	if !p.LastReviewedAt.IsZero() {
		last := p.LastReviewedAt
		resp.LastReviewedAt = &last
	}
	return resp
}

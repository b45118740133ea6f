package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewOutcome represents the learner-reported result of a repeat review.
type ReviewOutcome string

// Possible review outcome values
const (
	ReviewOutcomeAgain      ReviewOutcome = "again"
	ReviewOutcomeSad        ReviewOutcome = "sad"
	ReviewOutcomeHappy      ReviewOutcome = "happy"
	ReviewOutcomeSatisfying ReviewOutcome = "satisfying"
)

// Valid reports whether o is one of the known outcomes.
func (o ReviewOutcome) Valid() bool {
	switch o {
	case ReviewOutcomeAgain, ReviewOutcomeSad, ReviewOutcomeHappy, ReviewOutcomeSatisfying:
		return true
	default:
		return false
	}
}

// Validation errors for ReviewPoint
var (
	ErrEmptyReviewPointUserID  = errors.New("review point user ID cannot be empty")
	ErrEmptyReviewPointItemID  = errors.New("review point item ID cannot be empty")
	ErrNegativeRepetitionCount = errors.New("repetition count must be greater than or equal to 0")
	ErrMissingInitialReview    = errors.New("review point must have an initial review time")
)

// ReviewPoint is the spaced repetition schedule state for one (user, item) pair.
//
// A ReviewPoint is a value: scheduling functions in package srs take one and
// return an updated copy. RemovedFromReview only ever goes from false to true.
type ReviewPoint struct {
	UserID            uuid.UUID `json:"user_id"`
	ItemID            uuid.UUID `json:"item_id"`
	RepetitionCount   int       `json:"repetition_count"`
	InitialReviewedAt time.Time `json:"initial_reviewed_at"`
	LastReviewedAt    time.Time `json:"last_reviewed_at"`
	NextReviewAt      time.Time `json:"next_review_at"`
	RemovedFromReview bool      `json:"removed_from_review"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Validate checks if the ReviewPoint has valid data.
func (p ReviewPoint) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyReviewPointUserID
	}
	if p.ItemID == uuid.Nil {
		return ErrEmptyReviewPointItemID
	}
	if p.RepetitionCount < 0 {
		return ErrNegativeRepetitionCount
	}
	if p.InitialReviewedAt.IsZero() {
		return ErrMissingInitialReview
	}
	return nil
}

// IsDue reports whether the point should be shown at now.
// Removed points are never due.
func (p ReviewPoint) IsDue(now time.Time) bool {
	return !p.RemovedFromReview && !p.NextReviewAt.After(now)
}

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the scheduler.
const (
	TypeInitialStarted     = "review.initial_started"
	TypeOutcomeRecorded    = "review.outcome_recorded"
	TypeRemoved            = "review.removed"
	TypeDueDigestRequested = "review.due_digest_requested"
	TypeDueDigest          = "review.due_digest"
)

// Event is a notification about one user's review state.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// UserID is the learner the event concerns
	UserID uuid.UUID `json:"user_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the instant the event describes
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload. A nil
// payload leaves Payload empty.
func NewEvent(eventType string, userID uuid.UUID, payload interface{}, at time.Time) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   raw,
		CreatedAt: at.UTC(),
	}, nil
}

// ReviewPointPayload describes a review point after a committed change.
type ReviewPointPayload struct {
	ItemID          uuid.UUID `json:"item_id"`
	Outcome         string    `json:"outcome,omitempty"`
	RepetitionCount int       `json:"repetition_count"`
	NextReviewAt    time.Time `json:"next_review_at"`
	Removed         bool      `json:"removed"`
}

// DueDigestPayload summarises a user's review backlog.
type DueDigestPayload struct {
	DueCount       int `json:"due_count"`
	RemainingQuota int `json:"remaining_quota"`
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}

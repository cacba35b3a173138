package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
)

// EventType classifies an audit event.
type EventType string

const (
	EventDecisionCreated EventType = "decision.created"
	EventCaseCreated     EventType = "case.created"
	EventCaseAction      EventType = "case.action"
)

// ActorSystem is the actor recorded for pipeline-originated events.
const ActorSystem = "system"

// Event is an immutable audit log entry. The log is append-only: events are
// never updated or deleted and form the system's ground truth of what
// happened.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Actor     string                 `json:"actor"`
	Type      EventType              `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewEvent creates an audit event with validation.
func NewEvent(actor string, eventType EventType, payload map[string]interface{}) (*Event, error) {
	if actor == "" {
		return nil, errors.NewValidationError("MISSING_ACTOR", "actor is required")
	}
	if eventType == "" {
		return nil, errors.NewValidationError("MISSING_EVENT_TYPE", "event type is required")
	}

	return &Event{
		ID:        uuid.New(),
		Actor:     actor,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Log is the append-only audit collaborator. There is deliberately no
// update or delete surface.
type Log interface {
	// Append records an event and returns its id.
	Append(ctx context.Context, actor string, eventType EventType, payload map[string]interface{}) (uuid.UUID, error)
	// ListRecent returns the latest events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Event, error)
}

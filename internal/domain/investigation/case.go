package investigation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
)

// Case is the investigation artifact attached to a review/block decision.
// The body is immutable after creation; only Status changes, and only
// through the workflow.
type Case struct {
	ID                   uuid.UUID `json:"id"`
	PrimaryTransactionID uuid.UUID `json:"primary_transaction_id"`
	Status               Status    `json:"status"`

	Confidence      risk.Confidence  `json:"confidence"`
	Hypotheses      []Hypothesis     `json:"hypotheses"`
	Evidence        []EvidenceItem   `json:"evidence"`
	Timeline        []TimelineEvent  `json:"timeline"`
	Recommendations []Recommendation `json:"recommendations"`
	Suggestions     []string         `json:"investigation_suggestions"`

	CreatedAt time.Time `json:"created_at"`
}

type Status int

const (
	StatusOpen Status = iota
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParseStatus maps a stored string to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "open":
		return StatusOpen, nil
	case "closed":
		return StatusClosed, nil
	default:
		return 0, fmt.Errorf("invalid case status %q", s)
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Hypothesis is one candidate fraud explanation.
type Hypothesis struct {
	Title string `json:"title"`
	Why   string `json:"why"`
}

// EvidenceItem ties an observation to the transactions supporting it.
type EvidenceItem struct {
	Item           string   `json:"item"`
	TransactionIDs []string `json:"transaction_ids"`
}

// TimelineEvent is one notable event in the investigation timeline.
// TransactionID is part of the deduplication key but advisory-sourced
// events may not carry one.
type TimelineEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	Event         string    `json:"event"`
	TransactionID string    `json:"transaction_id,omitempty"`
}

// Recommendation is one concrete analyst action.
type Recommendation struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// CasePack is the structured narrative body of a case, either produced by
// the advisory collaborator or synthesized locally as a fallback.
type CasePack struct {
	Confidence      risk.Confidence
	Hypotheses      []Hypothesis
	Evidence        []EvidenceItem
	Timeline        []TimelineEvent
	Recommendations []Recommendation
	Suggestions     []string
}

// NewCase builds an open case around a primary transaction.
func NewCase(primaryTransactionID uuid.UUID, pack CasePack) (*Case, error) {
	if primaryTransactionID == uuid.Nil {
		return nil, fmt.Errorf("primary transaction ID cannot be nil")
	}

	return &Case{
		ID:                   uuid.New(),
		PrimaryTransactionID: primaryTransactionID,
		Status:               StatusOpen,
		Confidence:           pack.Confidence,
		Hypotheses:           pack.Hypotheses,
		Evidence:             pack.Evidence,
		Timeline:             pack.Timeline,
		Recommendations:      pack.Recommendations,
		Suggestions:          pack.Suggestions,
		CreatedAt:            time.Now().UTC(),
	}, nil
}

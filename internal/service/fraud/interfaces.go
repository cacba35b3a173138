package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// TransactionStore is the slice of the storage collaborator the adjudicator
// reads from.
type TransactionStore interface {
	// GetByID retrieves a transaction by its id.
	GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	// ListByUserBefore returns the user's most recent transactions strictly
	// before the given timestamp, oldest first, bounded to limit.
	ListByUserBefore(ctx context.Context, userID string, before time.Time, limit int) ([]*transaction.Transaction, error)
}

// DecisionStore persists decisions. CreateWithStatus must write the
// decision row and the transaction status in one atomic unit.
type DecisionStore interface {
	CreateWithStatus(ctx context.Context, decision *risk.Decision, status transaction.Status) error
	// LatestByTransaction returns the most recent decision for a
	// transaction.
	LatestByTransaction(ctx context.Context, transactionID uuid.UUID) (*risk.Decision, error)
}

// Advisor produces the untrusted advisory opinion for an adjudication.
// ok=false means the advisory service is unavailable and the caller must
// fall back to the deterministic mapping; the advisor never returns an
// error and never decides policy by itself.
type Advisor interface {
	AdjudicateDecision(ctx context.Context, tx *transaction.Transaction, fired []risk.Signal, baseScore int, candidate risk.Candidate) (opinion *risk.AdvisoryOpinion, ok bool)
}

// CaseCreator assembles an investigation case for a review/block decision.
type CaseCreator interface {
	CreateForDecision(ctx context.Context, tx *transaction.Transaction, decision *risk.Decision) (uuid.UUID, error)
}

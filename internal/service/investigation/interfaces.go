package investigation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
	"github.com/fraudops/risk-adjudication-backend/internal/service/advisory"
)

// TransactionStore is the read-only slice of the storage collaborator the
// context gatherer needs.
type TransactionStore interface {
	// ListByUserBefore returns the user's most recent transactions strictly
	// before the given timestamp, oldest first, bounded to limit.
	ListByUserBefore(ctx context.Context, userID string, before time.Time, limit int) ([]*transaction.Transaction, error)
	// ListLinked returns transactions from other users sharing the given
	// network fingerprint or device, most recent first, bounded to limit.
	ListLinked(ctx context.Context, ipHash, deviceID, excludeUserID string, limit int) ([]*transaction.Transaction, error)
}

// TransactionReader resolves the primary transaction behind a case.
type TransactionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
}

// DecisionReader resolves the latest decision behind a case.
type DecisionReader interface {
	LatestByTransaction(ctx context.Context, transactionID uuid.UUID) (*risk.Decision, error)
}

// CaseStore persists cases. UpdateStatusWithTransaction must write the case
// status and the transaction status in one atomic unit.
type CaseStore interface {
	Create(ctx context.Context, c *investigation.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*investigation.Case, error)
	List(ctx context.Context, limit int) ([]*investigation.Case, error)
	UpdateStatusWithTransaction(ctx context.Context, caseID uuid.UUID, caseStatus investigation.Status, transactionID uuid.UUID, transactionStatus transaction.Status) error
}

// Advisor produces the untrusted investigation narrative. ok=false means
// unavailable and the assembler must build the minimal fallback pack.
type Advisor interface {
	GenerateCasePack(ctx context.Context, tx *transaction.Transaction, userHistory, linked []*transaction.Transaction, signals []risk.Signal, summary advisory.DecisionSummary) (pack *investigation.CasePack, ok bool)
}

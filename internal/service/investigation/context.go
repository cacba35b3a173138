package investigation

import (
	"context"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// Bounded context windows for case assembly.
const (
	caseHistoryLimit = 50
	linkedLimit      = 50
)

// ContextGatherer retrieves the investigation context around a transaction:
// the subject user's own history and cross-account links through a shared
// device or network fingerprint. Both queries are read-only.
type ContextGatherer struct {
	transactions TransactionStore
}

// NewContextGatherer creates a gatherer over the transaction store.
func NewContextGatherer(transactions TransactionStore) *ContextGatherer {
	return &ContextGatherer{transactions: transactions}
}

// UserHistory returns the user's transactions strictly before the subject
// transaction, oldest first for narrative construction.
func (g *ContextGatherer) UserHistory(ctx context.Context, tx *transaction.Transaction) ([]*transaction.Transaction, error) {
	history, err := g.transactions.ListByUserBefore(ctx, tx.UserID, tx.Timestamp, caseHistoryLimit)
	if err != nil {
		return nil, errors.NewInternalError("failed to load user history").WithCause(err)
	}
	return history, nil
}

// Linked returns transactions from other users sharing the subject
// transaction's network fingerprint or device, most recent first. The
// lookup is skipped entirely when there is nothing to join on.
func (g *ContextGatherer) Linked(ctx context.Context, tx *transaction.Transaction) ([]*transaction.Transaction, error) {
	if tx.IPHash == "" && tx.DeviceID == "" {
		return nil, nil
	}
	linked, err := g.transactions.ListLinked(ctx, tx.IPHash, tx.DeviceID, tx.UserID, linkedLimit)
	if err != nil {
		return nil, errors.NewInternalError("failed to load linked context").WithCause(err)
	}
	return linked, nil
}

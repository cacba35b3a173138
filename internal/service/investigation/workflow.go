package investigation

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/audit"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
	"github.com/fraudops/risk-adjudication-backend/internal/metrics"
)

// Workflow applies analyst actions to cases. Closing a case never reverts
// the underlying transaction's own status history; the two statuses are
// written together but evolve independently afterwards.
type Workflow struct {
	cases        CaseStore
	transactions TransactionReader
	decisions    DecisionReader
	auditLog     audit.Log
	metrics      *metrics.Registry
	logger       *zap.Logger
}

// NewWorkflow wires the analyst workflow stage.
func NewWorkflow(cases CaseStore, transactions TransactionReader, decisions DecisionReader, auditLog audit.Log, m *metrics.Registry, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		cases:        cases,
		transactions: transactions,
		decisions:    decisions,
		auditLog:     auditLog,
		metrics:      m,
		logger:       logger,
	}
}

// Apply executes one analyst action against a case. An unresolvable case id
// returns a not-found error with no side effects of any kind. The case
// status and transaction status are updated in one atomic unit, then the
// action is audited.
func (w *Workflow) Apply(ctx context.Context, caseID uuid.UUID, action investigation.Action, note, actor string) (*investigation.Case, error) {
	c, err := w.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	txStatus, caseStatus, err := investigation.Transition(action, c.Status)
	if err != nil {
		return nil, errors.NewValidationError("INVALID_ACTION", "unknown case action").WithCause(err)
	}

	if err := w.cases.UpdateStatusWithTransaction(ctx, c.ID, caseStatus, c.PrimaryTransactionID, txStatus); err != nil {
		return nil, errors.NewInternalError("failed to apply case action").WithCause(err)
	}
	c.Status = caseStatus

	if _, err := w.auditLog.Append(ctx, actor, audit.EventCaseAction, map[string]interface{}{
		"case_id":        c.ID.String(),
		"transaction_id": c.PrimaryTransactionID.String(),
		"action":         action.String(),
		"note":           note,
	}); err != nil {
		return nil, errors.NewInternalError("failed to audit case action").WithCause(err)
	}

	if w.metrics != nil {
		w.metrics.CaseActionsTotal.WithLabelValues(action.String()).Inc()
	}
	w.logger.Info("case action applied",
		zap.String("case_id", c.ID.String()),
		zap.String("action", action.String()),
		zap.String("actor", actor),
		zap.String("case_status", caseStatus.String()),
		zap.String("transaction_status", txStatus.String()))

	return c, nil
}

// Get returns a case by id.
func (w *Workflow) Get(ctx context.Context, caseID uuid.UUID) (*investigation.Case, error) {
	return w.cases.GetByID(ctx, caseID)
}

// Detail is a case joined with its primary transaction and the latest
// decision for it.
type Detail struct {
	Case        *investigation.Case
	Transaction *transaction.Transaction
	// Decision is nil when no decision has been recorded yet.
	Decision *risk.Decision
}

// GetDetail resolves a case together with its primary transaction and the
// most recent decision.
func (w *Workflow) GetDetail(ctx context.Context, caseID uuid.UUID) (*Detail, error) {
	c, err := w.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	tx, err := w.transactions.GetByID(ctx, c.PrimaryTransactionID)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Case: c, Transaction: tx}
	decision, err := w.decisions.LatestByTransaction(ctx, c.PrimaryTransactionID)
	switch {
	case err == nil:
		detail.Decision = decision
	case errors.IsNotFound(err):
		// A case always follows a decision, but tolerate a missing row
		// rather than failing the whole read.
	default:
		return nil, err
	}
	return detail, nil
}

// List returns cases, newest first.
func (w *Workflow) List(ctx context.Context, limit int) ([]*investigation.Case, error) {
	return w.cases.List(ctx, limit)
}

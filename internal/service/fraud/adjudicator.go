package fraud

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/audit"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
	"github.com/fraudops/risk-adjudication-backend/internal/metrics"
)

// Outcome is the result of one adjudication run.
type Outcome struct {
	Decision   *risk.Decision
	Confidence risk.Confidence
	Candidate  risk.Candidate
	TopSignals []string
	// CaseID is set when the verdict opened an investigation case.
	CaseID *uuid.UUID
}

// Adjudicator runs the full decision pipeline for a transaction: signals,
// banding, advisory opinion, hard override, persistence, audit, and case
// creation for review/block verdicts.
type Adjudicator struct {
	transactions TransactionStore
	decisions    DecisionStore
	advisor      Advisor
	cases        CaseCreator
	auditLog     audit.Log
	metrics      *metrics.Registry
	logger       *zap.Logger

	// Concurrent re-scores of the same transaction serialize on a
	// per-identifier mutex; different transactions do not contend.
	mu       sync.Mutex
	inFlight map[uuid.UUID]*entry
}

type entry struct {
	sync.Mutex
	refs int
}

// NewAdjudicator wires the adjudication pipeline.
func NewAdjudicator(
	transactions TransactionStore,
	decisions DecisionStore,
	advisor Advisor,
	cases CaseCreator,
	auditLog audit.Log,
	m *metrics.Registry,
	logger *zap.Logger,
) *Adjudicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adjudicator{
		transactions: transactions,
		decisions:    decisions,
		advisor:      advisor,
		cases:        cases,
		auditLog:     auditLog,
		metrics:      m,
		logger:       logger,
		inFlight:     make(map[uuid.UUID]*entry),
	}
}

// Adjudicate runs one synchronous decision pass. Advisory unavailability is
// absorbed by the deterministic fallback; persistence failures are fatal for
// this run and never leave a partial decision/status pair behind.
func (a *Adjudicator) Adjudicate(ctx context.Context, tx *transaction.Transaction) (*Outcome, error) {
	unlock := a.lock(tx.ID)
	defer unlock()

	history, err := a.transactions.ListByUserBefore(ctx, tx.UserID, tx.Timestamp, historyLimit)
	if err != nil {
		return nil, errors.NewInternalError("failed to load user history").WithCause(err)
	}

	signals := ComputeSignals(tx, history)
	baseScore, candidate := ScoreAndBand(signals)
	fired := risk.Fired(signals)

	outcome := &Outcome{Candidate: candidate}

	verdict := candidate.Verdict()
	score := baseScore
	var rationale string

	opinion, ok := a.advisor.AdjudicateDecision(ctx, tx, fired, baseScore, candidate)
	if !ok {
		rationale = fallbackRationale(fired)
		outcome.Confidence = risk.ConfidenceMedium
		outcome.TopSignals = risk.Names(fired)
		if a.metrics != nil {
			a.metrics.AdvisoryFallbacksTotal.WithLabelValues("adjudicate").Inc()
		}
		a.logger.Info("advisory unavailable, using deterministic fallback",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("candidate", candidate.String()))
	} else {
		verdict = opinion.Verdict
		score = opinion.RiskScore
		rationale = opinion.Rationale
		outcome.Confidence = opinion.Confidence
		outcome.TopSignals = opinion.TopSignals

		if risk.OverrideApplies(candidate, verdict) {
			a.logger.Warn("hard override applied to advisory verdict",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("advisory_verdict", verdict.String()))
			verdict = risk.VerdictBlock
			if a.metrics != nil {
				a.metrics.HardOverridesTotal.Inc()
			}
		}
	}

	decision, err := risk.NewDecision(tx.ID, score, verdict, signals, rationale)
	if err != nil {
		return nil, errors.NewInternalError("failed to build decision").WithCause(err)
	}

	if err := a.decisions.CreateWithStatus(ctx, decision, verdict.TransactionStatus()); err != nil {
		return nil, errors.NewInternalError("failed to persist decision").WithCause(err)
	}
	tx.UpdateStatus(verdict.TransactionStatus())
	outcome.Decision = decision

	// The final verdict is the only thing stored on the row; the
	// pre-override candidate goes into the audit payload so overrides stay
	// auditable.
	if _, err := a.auditLog.Append(ctx, audit.ActorSystem, audit.EventDecisionCreated, map[string]interface{}{
		"decision_id":    decision.ID.String(),
		"transaction_id": tx.ID.String(),
		"decision":       verdict.String(),
		"risk_score":     score,
		"candidate":      candidate.String(),
	}); err != nil {
		return nil, errors.NewInternalError("failed to audit decision").WithCause(err)
	}

	if a.metrics != nil {
		a.metrics.DecisionsTotal.WithLabelValues(verdict.String()).Inc()
		a.metrics.RiskScoreDistribution.Observe(float64(score))
	}
	a.logger.Info("decision created",
		zap.String("decision_id", decision.ID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("verdict", verdict.String()),
		zap.Int("risk_score", score))

	if verdict.RequiresCase() {
		caseID, err := a.cases.CreateForDecision(ctx, tx, decision)
		if err != nil {
			return nil, errors.NewInternalError("failed to create case").WithCause(err)
		}
		outcome.CaseID = &caseID
	}

	return outcome, nil
}

// AdjudicateByID loads the transaction first; not-found surfaces to the
// caller untouched.
func (a *Adjudicator) AdjudicateByID(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	tx, err := a.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.Adjudicate(ctx, tx)
}

func fallbackRationale(fired []risk.Signal) string {
	explanations := make([]string, 0, len(fired))
	for _, s := range fired {
		explanations = append(explanations, s.Explanation)
	}
	return "Advisory unavailable; using rule-based decision. " + strings.Join(explanations, "; ")
}

func (a *Adjudicator) lock(id uuid.UUID) func() {
	a.mu.Lock()
	e, exists := a.inFlight[id]
	if !exists {
		e = &entry{}
		a.inFlight[id] = e
	}
	e.refs++
	a.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		a.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(a.inFlight, id)
		}
		a.mu.Unlock()
	}
}

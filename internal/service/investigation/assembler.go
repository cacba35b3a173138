package investigation

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/audit"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
	"github.com/fraudops/risk-adjudication-backend/internal/metrics"
	"github.com/fraudops/risk-adjudication-backend/internal/service/advisory"
)

// Assembler builds investigation cases for review/block decisions: gathers
// context, assembles a timeline, requests a narrative case pack, and
// persists the result.
type Assembler struct {
	gatherer *ContextGatherer
	advisor  Advisor
	cases    CaseStore
	auditLog audit.Log
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewAssembler wires the case assembly stage.
func NewAssembler(gatherer *ContextGatherer, advisor Advisor, cases CaseStore, auditLog audit.Log, m *metrics.Registry, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		gatherer: gatherer,
		advisor:  advisor,
		cases:    cases,
		auditLog: auditLog,
		metrics:  m,
		logger:   logger,
	}
}

// CreateForDecision assembles and persists a case for a decision that
// landed in review/block. Advisory unavailability degrades to the minimal
// fallback pack; persistence failures surface to the caller.
func (a *Assembler) CreateForDecision(ctx context.Context, tx *transaction.Transaction, decision *risk.Decision) (uuid.UUID, error) {
	history, err := a.gatherer.UserHistory(ctx, tx)
	if err != nil {
		return uuid.Nil, err
	}
	linked, err := a.gatherer.Linked(ctx, tx)
	if err != nil {
		return uuid.Nil, err
	}

	summary := advisory.DecisionSummary{
		Verdict:   decision.Verdict,
		RiskScore: decision.RiskScore,
		Rationale: decision.Rationale,
	}

	pack, ok := a.advisor.GenerateCasePack(ctx, tx, history, linked, decision.Signals, summary)
	if !ok {
		pack = fallbackPack(tx, history)
		if a.metrics != nil {
			a.metrics.AdvisoryFallbacksTotal.WithLabelValues("case_pack").Inc()
		}
		a.logger.Info("advisory unavailable, using minimal case pack",
			zap.String("transaction_id", tx.ID.String()))
	}

	c, err := investigation.NewCase(tx.ID, *pack)
	if err != nil {
		return uuid.Nil, errors.NewInternalError("failed to build case").WithCause(err)
	}

	if err := a.cases.Create(ctx, c); err != nil {
		return uuid.Nil, errors.NewInternalError("failed to persist case").WithCause(err)
	}

	if _, err := a.auditLog.Append(ctx, audit.ActorSystem, audit.EventCaseCreated, map[string]interface{}{
		"case_id":        c.ID.String(),
		"transaction_id": tx.ID.String(),
		"confidence":     c.Confidence.String(),
	}); err != nil {
		return uuid.Nil, errors.NewInternalError("failed to audit case creation").WithCause(err)
	}

	if a.metrics != nil {
		a.metrics.CasesCreatedTotal.Inc()
	}
	a.logger.Info("case created",
		zap.String("case_id", c.ID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("confidence", c.Confidence.String()))

	return c.ID, nil
}

// fallbackPack is the minimal case pack used when the advisory narrative is
// unavailable: medium confidence, one generic hypothesis, one evidence item
// naming the primary transaction, one manual-review recommendation, and the
// locally computed timeline.
func fallbackPack(tx *transaction.Transaction, history []*transaction.Transaction) *investigation.CasePack {
	return &investigation.CasePack{
		Confidence: risk.ConfidenceMedium,
		Hypotheses: []investigation.Hypothesis{
			{Title: "Rule-based flags", Why: "Automated signals triggered review/block."},
		},
		Evidence: []investigation.EvidenceItem{
			{Item: fmt.Sprintf("Transaction %s", tx.ID), TransactionIDs: []string{tx.ID.String()}},
		},
		Timeline: BuildTimeline(tx, history),
		Recommendations: []investigation.Recommendation{
			{Action: "Manual review", Reason: "Advisory case pack unavailable"},
		},
		Suggestions: []string{"Check user history and linked accounts"},
	}
}

// BuildTimeline assembles the notable-event timeline: the subject
// transaction itself, every deposit/withdrawal with its amount, every
// transition to a different device, and every transaction carrying a
// country. Duplicate (timestamp, event, transaction id) tuples are removed
// and the result is always re-sorted by timestamp ascending, so insertion
// order never matters.
func BuildTimeline(tx *transaction.Transaction, history []*transaction.Transaction) []investigation.TimelineEvent {
	type key struct {
		ts    int64
		event string
		txID  string
	}
	seen := make(map[key]struct{})
	events := make([]investigation.TimelineEvent, 0, len(history)+1)

	add := func(e investigation.TimelineEvent) {
		k := key{ts: e.Timestamp.UnixNano(), event: e.Event, txID: e.TransactionID}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		events = append(events, e)
	}

	add(investigation.TimelineEvent{
		Timestamp:     tx.Timestamp,
		Event:         fmt.Sprintf("Current: %s %s %s", tx.Type, tx.Amount.String(), tx.Currency),
		TransactionID: tx.ID.String(),
	})

	prevDevice := ""
	for _, h := range history {
		if h.Type == transaction.TypeDeposit || h.Type == transaction.TypeWithdrawal {
			add(investigation.TimelineEvent{
				Timestamp:     h.Timestamp,
				Event:         fmt.Sprintf("%s %s", h.Type, h.Amount.String()),
				TransactionID: h.ID.String(),
			})
		}
		if h.DeviceID != "" && h.DeviceID != prevDevice && prevDevice != "" {
			add(investigation.TimelineEvent{
				Timestamp:     h.Timestamp,
				Event:         fmt.Sprintf("Device changed to %s", h.DeviceID),
				TransactionID: h.ID.String(),
			})
		}
		if h.DeviceID != "" {
			prevDevice = h.DeviceID
		}
		if h.Country != "" {
			add(investigation.TimelineEvent{
				Timestamp:     h.Timestamp,
				Event:         fmt.Sprintf("Country: %s", h.Country),
				TransactionID: h.ID.String(),
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}

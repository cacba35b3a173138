package investigation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/audit"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

var baseTime = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTx(t *testing.T, typ transaction.Type, amount int64, ts time.Time) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.New(uuid.New(), ts, typ, decimal.NewFromInt(amount), "USD", "user-1")
	require.NoError(t, err)
	return tx
}

func newDecision(t *testing.T, tx *transaction.Transaction, verdict risk.Verdict) *risk.Decision {
	t.Helper()
	d, err := risk.NewDecision(tx.ID, 55, verdict, nil, "velocity spike")
	require.NoError(t, err)
	return d
}

type assemblerFixture struct {
	assembler *Assembler
	txs       *fakeTransactionStore
	cases     *fakeCaseStore
	advisor   *fakeAdvisor
	auditLog  *fakeAuditLog
}

func newAssemblerFixture(advisor *fakeAdvisor) *assemblerFixture {
	f := &assemblerFixture{
		txs:      &fakeTransactionStore{},
		cases:    newFakeCaseStore(),
		advisor:  advisor,
		auditLog: &fakeAuditLog{},
	}
	f.assembler = NewAssembler(NewContextGatherer(f.txs), advisor, f.cases, f.auditLog, nil, nil)
	return f
}

func TestBuildTimelineDeduplicatesAndSorts(t *testing.T) {
	tx := newTx(t, transaction.TypeWithdrawal, 500, baseTime)

	older := newTx(t, transaction.TypeDeposit, 1000, baseTime.Add(-2*time.Hour))
	newer := newTx(t, transaction.TypeWithdrawal, 300, baseTime.Add(-time.Hour))

	// Unordered input with the duplicate entry repeated.
	history := []*transaction.Transaction{newer, older, newer}

	events := BuildTimeline(tx, history)

	// One event per distinct (timestamp, event, transaction id) tuple.
	type key struct {
		ts    int64
		event string
		txID  string
	}
	seen := make(map[key]struct{})
	for _, e := range events {
		k := key{e.Timestamp.UnixNano(), e.Event, e.TransactionID}
		_, dup := seen[k]
		assert.False(t, dup, "duplicate timeline entry %v", e)
		seen[k] = struct{}{}
	}

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp.Before(events[i-1].Timestamp),
			"timeline not sorted at %d", i)
	}

	// The subject transaction is always the last event here since history
	// is strictly older.
	last := events[len(events)-1]
	assert.Equal(t, tx.ID.String(), last.TransactionID)
	assert.Contains(t, last.Event, "Current:")
}

func TestBuildTimelineDeviceAndCountryEvents(t *testing.T) {
	tx := newTx(t, transaction.TypeWithdrawal, 500, baseTime)

	first := newTx(t, transaction.TypeDeposit, 100, baseTime.Add(-3*time.Hour))
	first.DeviceID = "dev-1"
	first.Country = "US"
	second := newTx(t, transaction.TypeDeposit, 100, baseTime.Add(-2*time.Hour))
	second.DeviceID = "dev-2"
	second.Country = "RO"

	events := BuildTimeline(tx, []*transaction.Transaction{first, second})

	var names []string
	for _, e := range events {
		names = append(names, e.Event)
	}
	assert.Contains(t, names, "Device changed to dev-2")
	assert.Contains(t, names, "Country: US")
	assert.Contains(t, names, "Country: RO")
	// The first device seen establishes the baseline and is not a change.
	assert.NotContains(t, names, "Device changed to dev-1")
}

func TestBuildTimelineDeterministicAcrossInputOrder(t *testing.T) {
	tx := newTx(t, transaction.TypeWithdrawal, 500, baseTime)
	a := newTx(t, transaction.TypeDeposit, 100, baseTime.Add(-3*time.Hour))
	b := newTx(t, transaction.TypeWithdrawal, 200, baseTime.Add(-2*time.Hour))
	c := newTx(t, transaction.TypeDeposit, 300, baseTime.Add(-time.Hour))

	forward := BuildTimeline(tx, []*transaction.Transaction{a, b, c})
	reversed := BuildTimeline(tx, []*transaction.Transaction{c, b, a})

	assert.Equal(t, forward, reversed)
}

func TestCreateForDecisionWithAdvisoryPack(t *testing.T) {
	pack := &investigation.CasePack{
		Confidence: risk.ConfidenceHigh,
		Hypotheses: []investigation.Hypothesis{{Title: "Velocity abuse", Why: "rapid withdrawals"}},
		Evidence:   []investigation.EvidenceItem{{Item: "withdrawals", TransactionIDs: []string{"t1"}}},
		Recommendations: []investigation.Recommendation{
			{Action: "hold funds", Reason: "confirm with user"},
		},
		Suggestions: []string{"check payment methods"},
	}
	f := newAssemblerFixture(&fakeAdvisor{pack: pack, ok: true})

	tx := newTx(t, transaction.TypeWithdrawal, 1500, baseTime)
	caseID, err := f.assembler.CreateForDecision(context.Background(), tx, newDecision(t, tx, risk.VerdictReview))
	require.NoError(t, err)

	c, err := f.cases.GetByID(context.Background(), caseID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, c.PrimaryTransactionID)
	assert.Equal(t, investigation.StatusOpen, c.Status)
	assert.Equal(t, risk.ConfidenceHigh, c.Confidence)
	assert.Equal(t, pack.Hypotheses, c.Hypotheses)

	require.Len(t, f.auditLog.events, 1)
	e := f.auditLog.events[0]
	assert.Equal(t, audit.EventCaseCreated, e.eventType)
	assert.Equal(t, audit.ActorSystem, e.actor)
	assert.Equal(t, caseID.String(), e.payload["case_id"])
	assert.Equal(t, tx.ID.String(), e.payload["transaction_id"])
	assert.Equal(t, "high", e.payload["confidence"])
}

func TestCreateForDecisionFallbackPack(t *testing.T) {
	f := newAssemblerFixture(&fakeAdvisor{ok: false})

	tx := newTx(t, transaction.TypeWithdrawal, 1500, baseTime)
	f.txs.history = []*transaction.Transaction{
		newTx(t, transaction.TypeWithdrawal, 500, baseTime.Add(-time.Hour)),
	}

	caseID, err := f.assembler.CreateForDecision(context.Background(), tx, newDecision(t, tx, risk.VerdictReview))
	require.NoError(t, err)

	c, err := f.cases.GetByID(context.Background(), caseID)
	require.NoError(t, err)

	assert.Equal(t, risk.ConfidenceMedium, c.Confidence)
	require.Len(t, c.Hypotheses, 1)
	assert.Equal(t, "Rule-based flags", c.Hypotheses[0].Title)
	require.Len(t, c.Evidence, 1)
	assert.Equal(t, []string{tx.ID.String()}, c.Evidence[0].TransactionIDs)
	require.Len(t, c.Recommendations, 1)
	assert.Equal(t, "Manual review", c.Recommendations[0].Action)
	// The locally computed timeline still covers history plus the subject.
	assert.Len(t, c.Timeline, 2)
}

func TestCreateForDecisionSkipsLinkedLookupWithoutFingerprint(t *testing.T) {
	f := newAssemblerFixture(&fakeAdvisor{ok: false})

	tx := newTx(t, transaction.TypeWithdrawal, 1500, baseTime)
	_, err := f.assembler.CreateForDecision(context.Background(), tx, newDecision(t, tx, risk.VerdictReview))
	require.NoError(t, err)
	assert.Equal(t, 0, f.txs.linkedCalls)

	tx2 := newTx(t, transaction.TypeWithdrawal, 1500, baseTime)
	tx2.DeviceID = "dev-1"
	_, err = f.assembler.CreateForDecision(context.Background(), tx2, newDecision(t, tx2, risk.VerdictReview))
	require.NoError(t, err)
	assert.Equal(t, 1, f.txs.linkedCalls)
}

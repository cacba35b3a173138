package investigation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/audit"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
	"github.com/fraudops/risk-adjudication-backend/internal/service/advisory"
)

type fakeTransactionStore struct {
	history []*transaction.Transaction
	linked  []*transaction.Transaction

	linkedCalls int
}

func (s *fakeTransactionStore) ListByUserBefore(_ context.Context, _ string, _ time.Time, _ int) ([]*transaction.Transaction, error) {
	return s.history, nil
}

func (s *fakeTransactionStore) ListLinked(_ context.Context, _, _, _ string, _ int) ([]*transaction.Transaction, error) {
	s.linkedCalls++
	return s.linked, nil
}

type fakeTransactionReader struct {
	txs map[uuid.UUID]*transaction.Transaction
}

func newFakeTransactionReader() *fakeTransactionReader {
	return &fakeTransactionReader{txs: make(map[uuid.UUID]*transaction.Transaction)}
}

func (r *fakeTransactionReader) GetByID(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return nil, errors.ErrTransactionNotFound
	}
	return tx, nil
}

type fakeDecisionReader struct {
	decisions map[uuid.UUID]*risk.Decision
}

func newFakeDecisionReader() *fakeDecisionReader {
	return &fakeDecisionReader{decisions: make(map[uuid.UUID]*risk.Decision)}
}

func (r *fakeDecisionReader) LatestByTransaction(_ context.Context, transactionID uuid.UUID) (*risk.Decision, error) {
	d, ok := r.decisions[transactionID]
	if !ok {
		return nil, errors.ErrDecisionNotFound
	}
	return d, nil
}

type statusUpdate struct {
	caseStatus investigation.Status
	txID       uuid.UUID
	txStatus   transaction.Status
}

type fakeCaseStore struct {
	mu      sync.Mutex
	cases   map[uuid.UUID]*investigation.Case
	updates []statusUpdate
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{cases: make(map[uuid.UUID]*investigation.Case)}
}

func (s *fakeCaseStore) Create(_ context.Context, c *investigation.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = c
	return nil
}

func (s *fakeCaseStore) GetByID(_ context.Context, id uuid.UUID) (*investigation.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, errors.ErrCaseNotFound
	}
	return c, nil
}

func (s *fakeCaseStore) List(_ context.Context, _ int) ([]*investigation.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*investigation.Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeCaseStore) UpdateStatusWithTransaction(_ context.Context, caseID uuid.UUID, caseStatus investigation.Status, txID uuid.UUID, txStatus transaction.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return errors.ErrCaseNotFound
	}
	c.Status = caseStatus
	s.updates = append(s.updates, statusUpdate{caseStatus: caseStatus, txID: txID, txStatus: txStatus})
	return nil
}

type fakeAdvisor struct {
	pack  *investigation.CasePack
	ok    bool
	calls int
}

func (a *fakeAdvisor) GenerateCasePack(_ context.Context, _ *transaction.Transaction, _, _ []*transaction.Transaction, _ []risk.Signal, _ advisory.DecisionSummary) (*investigation.CasePack, bool) {
	a.calls++
	return a.pack, a.ok
}

type recordedEvent struct {
	actor     string
	eventType audit.EventType
	payload   map[string]interface{}
}

type fakeAuditLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (l *fakeAuditLog) Append(_ context.Context, actor string, eventType audit.EventType, payload map[string]interface{}) (uuid.UUID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{actor: actor, eventType: eventType, payload: payload})
	return uuid.New(), nil
}

func (l *fakeAuditLog) ListRecent(_ context.Context, _ int) ([]*audit.Event, error) {
	return nil, nil
}

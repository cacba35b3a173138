package risk

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// Decision banding thresholds. Block uses a hard floor while review is a
// closed range; any score outside both falls through to approve_candidate.
const (
	BlockThreshold = 80
	ReviewMin      = 40
	ReviewMax      = 79

	MinScore = 0
	MaxScore = 100
)

// Verdict is the final decision for a transaction, after advisory input and
// the hard-override policy.
type Verdict int

const (
	VerdictApprove Verdict = iota
	VerdictReview
	VerdictBlock
)

func (v Verdict) String() string {
	switch v {
	case VerdictApprove:
		return "approve"
	case VerdictReview:
		return "review"
	case VerdictBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParseVerdict maps a wire string to a Verdict.
func ParseVerdict(s string) (Verdict, error) {
	switch s {
	case "approve":
		return VerdictApprove, nil
	case "review":
		return VerdictReview, nil
	case "block":
		return VerdictBlock, nil
	default:
		return 0, fmt.Errorf("invalid verdict %q", s)
	}
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// TransactionStatus maps a verdict to the transaction status it implies.
func (v Verdict) TransactionStatus() transaction.Status {
	switch v {
	case VerdictReview:
		return transaction.StatusReview
	case VerdictBlock:
		return transaction.StatusBlock
	default:
		return transaction.StatusApprove
	}
}

// RequiresCase reports whether a verdict opens an investigation case.
func (v Verdict) RequiresCase() bool {
	return v == VerdictReview || v == VerdictBlock
}

// Candidate is the pre-advisory classification derived from the
// deterministic score alone.
type Candidate int

const (
	CandidateApprove Candidate = iota
	CandidateReview
	CandidateBlock
)

func (c Candidate) String() string {
	switch c {
	case CandidateApprove:
		return "approve_candidate"
	case CandidateReview:
		return "review_candidate"
	case CandidateBlock:
		return "block_candidate"
	default:
		return "unknown"
	}
}

func (c Candidate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// Verdict is the deterministic fallback mapping used when the advisory
// opinion is unavailable.
func (c Candidate) Verdict() Verdict {
	switch c {
	case CandidateBlock:
		return VerdictBlock
	case CandidateReview:
		return VerdictReview
	default:
		return VerdictApprove
	}
}

// BandFor classifies a clamped score into its candidate band.
func BandFor(score int) Candidate {
	if score >= BlockThreshold {
		return CandidateBlock
	}
	if score >= ReviewMin && score <= ReviewMax {
		return CandidateReview
	}
	return CandidateApprove
}

// ClampScore bounds a risk score into [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// OverrideApplies is the hard-override safety policy: a block_candidate must
// end in a block verdict no matter what the advisory opinion said. The
// predicate is pure so the policy stays independently testable and can never
// be delegated to external input.
func OverrideApplies(candidate Candidate, verdict Verdict) bool {
	return candidate == CandidateBlock && verdict != VerdictBlock
}

// Confidence grades how certain an adjudication or a case pack is.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseConfidence maps a wire string to a Confidence, defaulting to medium
// for anything unrecognized. Advisory output is untrusted, so the default is
// deliberately lenient.
func ParseConfidence(s string) Confidence {
	switch s {
	case "low":
		return ConfidenceLow
	case "high":
		return ConfidenceHigh
	default:
		return ConfidenceMedium
	}
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// AdvisoryOpinion is the schema-validated output of the advisory
// collaborator for one adjudication. It is advisory input only; the
// merge with the deterministic candidate happens in the adjudicator.
type AdvisoryOpinion struct {
	Verdict    Verdict
	RiskScore  int
	Rationale  string
	TopSignals []string
	Confidence Confidence
}

// Decision is one append-only adjudication result. A re-score creates a new
// Decision; the current decision for a transaction is the most recent by
// CreatedAt.
type Decision struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	RiskScore     int       `json:"risk_score"`
	Verdict       Verdict   `json:"verdict"`
	Signals       []Signal  `json:"signals"`
	Rationale     string    `json:"rationale"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewDecision builds a decision row, enforcing the score range invariant.
func NewDecision(transactionID uuid.UUID, score int, verdict Verdict, signals []Signal, rationale string) (*Decision, error) {
	if transactionID == uuid.Nil {
		return nil, fmt.Errorf("transaction ID cannot be nil")
	}
	if score < MinScore || score > MaxScore {
		return nil, fmt.Errorf("risk score %d out of range [%d,%d]", score, MinScore, MaxScore)
	}

	return &Decision{
		ID:            uuid.New(),
		TransactionID: transactionID,
		RiskScore:     score,
		Verdict:       verdict,
		Signals:       signals,
		Rationale:     rationale,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

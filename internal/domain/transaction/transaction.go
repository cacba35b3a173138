package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an ingested money movement. Everything except Status is
// immutable once the record enters the pipeline; downstream stages reference
// the same record rather than copying it.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	Type           Type            `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	UserID         string          `json:"user_id"`
	AccountAgeDays int             `json:"account_age_days"`

	// Optional context; empty string means not reported by ingestion.
	Country  string `json:"country,omitempty"`
	IPHash   string `json:"ip_hash,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	PSP      string `json:"psp,omitempty"`

	Status Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Type int

const (
	TypeDeposit Type = iota
	TypeWithdrawal
	TypeTrade
	TypeTransfer
)

func (t Type) String() string {
	switch t {
	case TypeDeposit:
		return "deposit"
	case TypeWithdrawal:
		return "withdrawal"
	case TypeTrade:
		return "trade"
	case TypeTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// ParseType maps a wire string to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "deposit":
		return TypeDeposit, nil
	case "withdrawal":
		return TypeWithdrawal, nil
	case "trade":
		return TypeTrade, nil
	case "transfer":
		return TypeTransfer, nil
	default:
		return 0, fmt.Errorf("invalid transaction type %q", s)
	}
}

func (t Type) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

type Status int

const (
	StatusPending Status = iota
	// StatusApprove, StatusReview and StatusBlock are set by adjudication
	// and mirror the decision verdict.
	StatusApprove
	StatusReview
	StatusBlock
	// StatusApproved and StatusBlocked are terminal analyst outcomes.
	StatusApproved
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApprove:
		return "approve"
	case StatusReview:
		return "review"
	case StatusBlock:
		return "block"
	case StatusApproved:
		return "approved"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ParseStatus maps a stored string to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "approve":
		return StatusApprove, nil
	case "review":
		return StatusReview, nil
	case "block":
		return StatusBlock, nil
	case "approved":
		return StatusApproved, nil
	case "blocked":
		return StatusBlocked, nil
	default:
		return 0, fmt.Errorf("invalid transaction status %q", s)
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// New builds a pending transaction with validated required fields.
func New(id uuid.UUID, ts time.Time, typ Type, amount decimal.Decimal, currency, userID string) (*Transaction, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("transaction ID cannot be nil")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	return &Transaction{
		ID:        id,
		Timestamp: ts,
		Type:      typ,
		Amount:    amount,
		Currency:  currency,
		UserID:    userID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// UpdateStatus mutates the only mutable field.
func (t *Transaction) UpdateStatus(status Status) {
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
}

// IsWithdrawal reports whether the transaction moves money out.
func (t *Transaction) IsWithdrawal() bool {
	return t.Type == TypeWithdrawal
}

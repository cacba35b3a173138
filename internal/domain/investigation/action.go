package investigation

import (
	"fmt"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// Action is an analyst-driven workflow action on a case.
type Action int

const (
	ActionApprove Action = iota
	ActionHold
	ActionRequestKYC
	ActionBlock
)

func (a Action) String() string {
	switch a {
	case ActionApprove:
		return "approve"
	case ActionHold:
		return "hold"
	case ActionRequestKYC:
		return "request_kyc"
	case ActionBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ParseAction maps a wire string to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "approve":
		return ActionApprove, nil
	case "hold":
		return ActionHold, nil
	case "request_kyc":
		return ActionRequestKYC, nil
	case "block":
		return ActionBlock, nil
	default:
		return 0, fmt.Errorf("invalid case action %q", s)
	}
}

// Transition returns the transaction status and case status an action
// produces from the case's current status. The two writes always happen
// together. Hold and request_kyc carry the current case status through
// unchanged: a closed case stays closed, it is never re-opened by holding
// the transaction again.
func Transition(a Action, current Status) (transaction.Status, Status, error) {
	switch a {
	case ActionApprove:
		return transaction.StatusApproved, StatusClosed, nil
	case ActionHold:
		return transaction.StatusReview, current, nil
	case ActionRequestKYC:
		return transaction.StatusReview, current, nil
	case ActionBlock:
		return transaction.StatusBlocked, StatusClosed, nil
	default:
		return 0, 0, fmt.Errorf("invalid case action %d", a)
	}
}

package investigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		input string
		want  Action
	}{
		{"approve", ActionApprove},
		{"hold", ActionHold},
		{"request_kyc", ActionRequestKYC},
		{"block", ActionBlock},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAction("escalate")
	assert.Error(t, err)
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name           string
		action         Action
		current        Status
		wantTxStatus   transaction.Status
		wantCaseStatus Status
	}{
		{"approve closes the case", ActionApprove, StatusOpen, transaction.StatusApproved, StatusClosed},
		{"hold keeps the case open", ActionHold, StatusOpen, transaction.StatusReview, StatusOpen},
		{"request_kyc keeps the case open", ActionRequestKYC, StatusOpen, transaction.StatusReview, StatusOpen},
		{"block closes the case", ActionBlock, StatusOpen, transaction.StatusBlocked, StatusClosed},
		{"hold leaves a closed case closed", ActionHold, StatusClosed, transaction.StatusReview, StatusClosed},
		{"request_kyc leaves a closed case closed", ActionRequestKYC, StatusClosed, transaction.StatusReview, StatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txStatus, caseStatus, err := Transition(tt.action, tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTxStatus, txStatus)
			assert.Equal(t, tt.wantCaseStatus, caseStatus)
		})
	}

	_, _, err := Transition(Action(99), StatusOpen)
	assert.Error(t, err)
}

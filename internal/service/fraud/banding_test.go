package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
)

func weighted(weights ...int) []risk.Signal {
	signals := make([]risk.Signal, 0, len(weights))
	for _, w := range weights {
		signals = append(signals, risk.Signal{Weight: w, Fired: true})
	}
	return signals
}

func TestScoreAndBand(t *testing.T) {
	tests := []struct {
		name          string
		signals       []risk.Signal
		wantScore     int
		wantCandidate risk.Candidate
	}{
		{"nothing fired", nil, 0, risk.CandidateApprove},
		{"just below review", weighted(25, 14), 39, risk.CandidateApprove},
		{"review floor", weighted(25, 15), 40, risk.CandidateReview},
		{"review ceiling", weighted(25, 20, 15, 19), 79, risk.CandidateReview},
		{"block floor", weighted(25, 20, 15, 20), 80, risk.CandidateBlock},
		{"all rules fired clamps at 100", weighted(25, 20, 15, 20, 25, 10), 100, risk.CandidateBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, candidate := ScoreAndBand(tt.signals)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantCandidate, candidate)
		})
	}
}

func TestScoreAndBandIgnoresUnfiredWeights(t *testing.T) {
	signals := []risk.Signal{
		{Weight: 25, Fired: true},
		{Weight: 20, Fired: false},
		{Weight: 15, Fired: false},
	}

	score, candidate := ScoreAndBand(signals)
	assert.Equal(t, 25, score)
	assert.Equal(t, risk.CandidateApprove, candidate)
}

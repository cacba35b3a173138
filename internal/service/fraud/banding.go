package fraud

import "github.com/fraudops/risk-adjudication-backend/internal/domain/risk"

// ScoreAndBand computes the deterministic base score and candidate band:
// the clamped sum of fired signal weights, classified by the banding
// thresholds.
func ScoreAndBand(signals []risk.Signal) (int, risk.Candidate) {
	score := 0
	for _, s := range signals {
		if s.Fired {
			score += s.Weight
		}
	}
	score = risk.ClampScore(score)
	return score, risk.BandFor(score)
}

package advisory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced with language", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  \n```json\n{\"a\":1}\n```\n", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.input))
		})
	}
}

func TestParseDecisionOpinion(t *testing.T) {
	text := `{"decision": "review", "risk_score": 65, "rationale": "velocity spike", "top_signals": ["velocity_withdrawals_20m"], "confidence": "high"}`

	opinion, err := parseDecisionOpinion(text, 40)
	require.NoError(t, err)
	assert.Equal(t, risk.VerdictReview, opinion.Verdict)
	assert.Equal(t, 65, opinion.RiskScore)
	assert.Equal(t, "velocity spike", opinion.Rationale)
	assert.Equal(t, []string{"velocity_withdrawals_20m"}, opinion.TopSignals)
	assert.Equal(t, risk.ConfidenceHigh, opinion.Confidence)
}

func TestParseDecisionOpinionFenced(t *testing.T) {
	text := "```json\n{\"decision\": \"block\", \"risk_score\": 90}\n```"

	opinion, err := parseDecisionOpinion(text, 40)
	require.NoError(t, err)
	assert.Equal(t, risk.VerdictBlock, opinion.Verdict)
	assert.Equal(t, 90, opinion.RiskScore)
}

func TestParseDecisionOpinionDefaults(t *testing.T) {
	// Unknown verdicts degrade to review; a missing score falls back to the
	// deterministic base; missing confidence defaults to medium.
	text := `{"decision": "escalate", "rationale": "odd"}`

	opinion, err := parseDecisionOpinion(text, 40)
	require.NoError(t, err)
	assert.Equal(t, risk.VerdictReview, opinion.Verdict)
	assert.Equal(t, 40, opinion.RiskScore)
	assert.Equal(t, risk.ConfidenceMedium, opinion.Confidence)
}

func TestParseDecisionOpinionClampsScore(t *testing.T) {
	opinion, err := parseDecisionOpinion(`{"decision": "block", "risk_score": 150}`, 40)
	require.NoError(t, err)
	assert.Equal(t, 100, opinion.RiskScore)

	opinion, err = parseDecisionOpinion(`{"decision": "approve", "risk_score": -10}`, 40)
	require.NoError(t, err)
	assert.Equal(t, 0, opinion.RiskScore)
}

func TestParseDecisionOpinionNotJSON(t *testing.T) {
	_, err := parseDecisionOpinion("I think this transaction is fine.", 40)
	assert.Error(t, err)
}

func TestParseCasePack(t *testing.T) {
	text := `{
		"confidence": "high",
		"hypotheses": [{"title": "Account takeover", "why": "new device"}],
		"evidence": [{"item": "shared device", "transaction_ids": ["t1", "t2"]}],
		"timeline": [{"timestamp": "2026-03-15T12:00:00Z", "event": "withdrawal 500"}],
		"recommendations": [{"action": "hold funds", "reason": "pending review"}],
		"investigation_suggestions": ["check shared IP"]
	}`

	pack, err := parseCasePack(text)
	require.NoError(t, err)
	assert.Equal(t, risk.ConfidenceHigh, pack.Confidence)
	require.Len(t, pack.Hypotheses, 1)
	assert.Equal(t, "Account takeover", pack.Hypotheses[0].Title)
	require.Len(t, pack.Evidence, 1)
	assert.Equal(t, []string{"t1", "t2"}, pack.Evidence[0].TransactionIDs)
	require.Len(t, pack.Timeline, 1)
	assert.Equal(t, time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), pack.Timeline[0].Timestamp)
	require.Len(t, pack.Recommendations, 1)
	assert.Equal(t, []string{"check shared IP"}, pack.Suggestions)
}

func TestParseCasePackDropsMalformedItems(t *testing.T) {
	text := `{
		"confidence": "low",
		"hypotheses": [
			{"title": "Good", "why": "kept"},
			{"why": "missing title"},
			"not an object"
		],
		"evidence": [
			{"item": "kept"},
			{"transaction_ids": ["t1"]}
		],
		"timeline": [
			{"timestamp": "2026-03-15T12:00:00Z", "event": "kept"},
			{"timestamp": "not a time", "event": "dropped"},
			{"timestamp": "2026-03-15T13:00:00Z"}
		],
		"recommendations": [
			{"action": "kept", "reason": "x"},
			{"reason": "missing action"}
		]
	}`

	pack, err := parseCasePack(text)
	require.NoError(t, err)
	require.Len(t, pack.Hypotheses, 1)
	assert.Equal(t, "Good", pack.Hypotheses[0].Title)
	require.Len(t, pack.Evidence, 1)
	require.Len(t, pack.Timeline, 1)
	assert.Equal(t, "kept", pack.Timeline[0].Event)
	require.Len(t, pack.Recommendations, 1)
}

func TestParseCasePackNotJSON(t *testing.T) {
	_, err := parseCasePack("here is my analysis")
	assert.Error(t, err)
}

func TestParseTimestampFormats(t *testing.T) {
	for _, s := range []string{
		"2026-03-15T12:00:00.123Z",
		"2026-03-15T12:00:00Z",
		"2026-03-15T12:00:00",
		"2026-03-15",
	} {
		_, err := parseTimestamp(s)
		assert.NoError(t, err, s)
	}

	_, err := parseTimestamp("March 15th")
	assert.Error(t, err)
}

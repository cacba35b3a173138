package advisory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
)

// stripFences unwraps a markdown code block if the model fenced its reply.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type decisionWire struct {
	Decision   string   `json:"decision"`
	RiskScore  *int     `json:"risk_score"`
	Rationale  string   `json:"rationale"`
	TopSignals []string `json:"top_signals"`
	Confidence string   `json:"confidence"`
}

// parseDecisionOpinion validates an adjudication reply. Missing fields get
// safe defaults; the risk score is clamped into range regardless of what the
// model returned. Only a reply that is not JSON at all is an error.
func parseDecisionOpinion(text string, baseScore int) (*risk.AdvisoryOpinion, error) {
	var wire decisionWire
	if err := json.Unmarshal([]byte(stripFences(text)), &wire); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}

	verdict, err := risk.ParseVerdict(wire.Decision)
	if err != nil {
		// Unknown verdicts degrade to review, never to approve.
		verdict = risk.VerdictReview
	}

	score := baseScore
	if wire.RiskScore != nil {
		score = *wire.RiskScore
	}

	return &risk.AdvisoryOpinion{
		Verdict:    verdict,
		RiskScore:  risk.ClampScore(score),
		Rationale:  wire.Rationale,
		TopSignals: wire.TopSignals,
		Confidence: risk.ParseConfidence(wire.Confidence),
	}, nil
}

type casePackWire struct {
	Confidence      string            `json:"confidence"`
	Hypotheses      []json.RawMessage `json:"hypotheses"`
	Evidence        []json.RawMessage `json:"evidence"`
	Timeline        []json.RawMessage `json:"timeline"`
	Recommendations []json.RawMessage `json:"recommendations"`
	Suggestions     []string          `json:"investigation_suggestions"`
}

type timelineWire struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
}

// parseCasePack validates a case-pack reply. List items that are
// structurally wrong are dropped individually instead of aborting the whole
// response.
func parseCasePack(text string) (*investigation.CasePack, error) {
	var wire casePackWire
	if err := json.Unmarshal([]byte(stripFences(text)), &wire); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}

	pack := &investigation.CasePack{
		Confidence:  risk.ParseConfidence(wire.Confidence),
		Suggestions: wire.Suggestions,
	}

	for _, raw := range wire.Hypotheses {
		var h investigation.Hypothesis
		if err := json.Unmarshal(raw, &h); err != nil || h.Title == "" {
			continue
		}
		pack.Hypotheses = append(pack.Hypotheses, h)
	}
	for _, raw := range wire.Evidence {
		var e investigation.EvidenceItem
		if err := json.Unmarshal(raw, &e); err != nil || e.Item == "" {
			continue
		}
		pack.Evidence = append(pack.Evidence, e)
	}
	for _, raw := range wire.Timeline {
		var t timelineWire
		if err := json.Unmarshal(raw, &t); err != nil || t.Event == "" {
			continue
		}
		ts, err := parseTimestamp(t.Timestamp)
		if err != nil {
			continue
		}
		pack.Timeline = append(pack.Timeline, investigation.TimelineEvent{
			Timestamp: ts,
			Event:     t.Event,
		})
	}
	for _, raw := range wire.Recommendations {
		var r investigation.Recommendation
		if err := json.Unmarshal(raw, &r); err != nil || r.Action == "" {
			continue
		}
		pack.Recommendations = append(pack.Recommendations, r)
	}

	return pack, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

package advisory

import (
	"encoding/json"
	"fmt"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// In-prompt context bounds, so a long history cannot blow up the request.
const (
	promptHistoryLimit = 50
	promptLinkedLimit  = 30
)

const decisionPromptFormat = `You are a fraud risk adjudicator. Given a transaction and risk signals, output ONLY valid JSON.

Transaction: %s
Risk signals (fired): %s
Base risk score (0-100): %d
Pre-advisory candidate: %s

Rules:
- If candidate is block_candidate, you MUST set "decision": "block". Never approve a block_candidate.
- If candidate is review_candidate, you may output "review" or "block", never "approve".
- If candidate is approve_candidate, you may output "approve", "review", or "block".
- risk_score must be 0-100.
- rationale: short, factual explanation.
- top_signals: list of 2-4 signal names that most influenced the decision.
- confidence: "low" | "medium" | "high"

Output ONLY this JSON, no markdown or extra text:
{"decision": "approve"|"review"|"block", "risk_score": 0-100, "rationale": "...", "top_signals": ["...", "..."], "confidence": "low"|"medium"|"high"}
`

const blockCandidateRule = `CRITICAL: This transaction is a block_candidate (base risk score >= 80). You MUST return decision: "block". Do not approve or review.`

func buildDecisionPrompt(tx *transaction.Transaction, fired []risk.Signal, baseScore int, candidate risk.Candidate) (string, error) {
	txJSON, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction: %w", err)
	}
	signalsJSON, err := json.Marshal(fired)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signals: %w", err)
	}

	prompt := fmt.Sprintf(decisionPromptFormat, txJSON, signalsJSON, baseScore, candidate)
	if candidate == risk.CandidateBlock {
		prompt += "\n" + blockCandidateRule + "\n"
	}
	return prompt, nil
}

const casePromptFormat = `You are a fraud investigator. Generate an investigation case pack as JSON.

Primary transaction: %s
User's recent transactions (up to %d): %s
Linked accounts context (same IP hash/device): %s
Risk signals: %s
Decision summary: %s

Output ONLY valid JSON with this exact structure (no markdown):
{
  "confidence": "low"|"medium"|"high",
  "hypotheses": [{"title": "...", "why": "..."}, ...],
  "evidence": [{"item": "...", "transaction_ids": ["id1", "id2"]}, ...],
  "timeline": [{"timestamp": "RFC3339", "event": "..."}, ...],
  "recommendations": [{"action": "...", "reason": "..."}, ...],
  "investigation_suggestions": ["...", "..."]
}

- hypotheses: 3-5 bullets (title + why).
- evidence: bullet list referencing transaction ids and relationships.
- timeline: key events ordered by timestamp (deposits, withdrawals, device/geo changes).
- recommendations: concrete actions (e.g. hold funds, request KYC, block).
- investigation_suggestions: e.g. check shared IP/device, payment methods.
`

func buildCasePrompt(tx *transaction.Transaction, userHistory, linked []*transaction.Transaction, signals []risk.Signal, summary DecisionSummary) (string, error) {
	if len(userHistory) > promptHistoryLimit {
		userHistory = userHistory[len(userHistory)-promptHistoryLimit:]
	}
	if len(linked) > promptLinkedLimit {
		linked = linked[:promptLinkedLimit]
	}

	txJSON, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction: %w", err)
	}
	historyJSON, err := json.Marshal(userHistory)
	if err != nil {
		return "", fmt.Errorf("failed to marshal history: %w", err)
	}
	linkedJSON, err := json.Marshal(linked)
	if err != nil {
		return "", fmt.Errorf("failed to marshal linked context: %w", err)
	}
	signalsJSON, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signals: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to marshal decision summary: %w", err)
	}

	return fmt.Sprintf(casePromptFormat, txJSON, promptHistoryLimit, historyJSON, linkedJSON, signalsJSON, summaryJSON), nil
}

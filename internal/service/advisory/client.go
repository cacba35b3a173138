package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
	"github.com/fraudops/risk-adjudication-backend/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Config holds the reasoning service endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds every advisory call; an unbounded hang is a defect.
	Timeout time.Duration
}

// Client wraps the external reasoning service behind the two advisory
// prompts. The client is advisory only: it never writes to storage and never
// decides policy. Every failure mode (network, auth, quota, malformed or
// schema-violating output) degrades to the unavailable sentinel instead of
// propagating.
type Client struct {
	cfg     Config
	client  *http.Client
	metrics *metrics.Registry
	logger  *zap.Logger
}

// DecisionSummary is the decision context passed into case-pack generation.
type DecisionSummary struct {
	Verdict   risk.Verdict `json:"decision"`
	RiskScore int          `json:"risk_score"`
	Rationale string       `json:"rationale"`
}

// NewClient creates an advisory client. With an empty base URL or API key
// the client reports unavailable on every call.
func NewClient(cfg Config, m *metrics.Registry, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		metrics: m,
		logger:  logger,
	}
}

func (c *Client) enabled() bool {
	return c.cfg.BaseURL != "" && c.cfg.APIKey != ""
}

// AdjudicateDecision asks the reasoning service for a decision opinion.
// ok=false means unavailable and the caller must use its deterministic
// fallback.
func (c *Client) AdjudicateDecision(ctx context.Context, tx *transaction.Transaction, fired []risk.Signal, baseScore int, candidate risk.Candidate) (*risk.AdvisoryOpinion, bool) {
	if !c.enabled() {
		return nil, false
	}

	prompt, err := buildDecisionPrompt(tx, fired, baseScore, candidate)
	if err != nil {
		c.logger.Warn("failed to build decision prompt", zap.Error(err))
		return nil, false
	}

	text, err := c.complete(ctx, "adjudicate", prompt)
	if err != nil {
		c.logger.Warn("advisory adjudication unavailable",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
		return nil, false
	}

	opinion, err := parseDecisionOpinion(text, baseScore)
	if err != nil {
		c.logger.Warn("advisory adjudication returned malformed output",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
		return nil, false
	}
	return opinion, true
}

// GenerateCasePack asks the reasoning service for an investigation
// narrative. ok=false means unavailable and the caller must build the
// minimal fallback pack.
func (c *Client) GenerateCasePack(ctx context.Context, tx *transaction.Transaction, userHistory, linked []*transaction.Transaction, signals []risk.Signal, summary DecisionSummary) (*investigation.CasePack, bool) {
	if !c.enabled() {
		return nil, false
	}

	prompt, err := buildCasePrompt(tx, userHistory, linked, signals, summary)
	if err != nil {
		c.logger.Warn("failed to build case prompt", zap.Error(err))
		return nil, false
	}

	text, err := c.complete(ctx, "case_pack", prompt)
	if err != nil {
		c.logger.Warn("advisory case generation unavailable",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
		return nil, false
	}

	pack, err := parseCasePack(text)
	if err != nil {
		c.logger.Warn("advisory case generation returned malformed output",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
		return nil, false
	}
	return pack, true
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// complete runs one chat completion and returns the raw reply text.
func (c *Client) complete(ctx context.Context, operation, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.AdvisoryCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

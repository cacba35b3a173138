package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/investigation"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// CaseRepository implements case storage over PostgreSQL. Case bodies are
// immutable after creation; only the status column is ever updated.
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository.
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

const caseColumns = `
	id, primary_transaction_id, status, confidence,
	hypotheses, evidence, timeline, recommendations, suggestions, created_at`

// Create inserts a case.
func (r *CaseRepository) Create(ctx context.Context, c *investigation.Case) error {
	hypotheses, err := json.Marshal(c.Hypotheses)
	if err != nil {
		return fmt.Errorf("failed to marshal hypotheses: %w", err)
	}
	evidence, err := json.Marshal(c.Evidence)
	if err != nil {
		return fmt.Errorf("failed to marshal evidence: %w", err)
	}
	timeline, err := json.Marshal(c.Timeline)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	recommendations, err := json.Marshal(c.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	query := `
		INSERT INTO cases (` + caseColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.db.Exec(ctx, query,
		c.ID, c.PrimaryTransactionID, c.Status.String(), c.Confidence.String(),
		hypotheses, evidence, timeline, recommendations, pq.Array(c.Suggestions), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

// GetByID retrieves a case by its id.
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*investigation.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`

	c, err := scanCase(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// List returns cases, newest first.
func (r *CaseRepository) List(ctx context.Context, limit int) ([]*investigation.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM cases
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var out []*investigation.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cases: %w", err)
	}
	return out, nil
}

// UpdateStatusWithTransaction writes the case status and the transaction
// status in one database transaction.
func (r *CaseRepository) UpdateStatusWithTransaction(ctx context.Context, caseID uuid.UUID, caseStatus investigation.Status, transactionID uuid.UUID, transactionStatus transaction.Status) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		now := time.Now().UTC()

		tag, err := tx.Exec(ctx, `UPDATE cases SET status = $1 WHERE id = $2`, caseStatus.String(), caseID)
		if err != nil {
			return fmt.Errorf("failed to update case status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errors.ErrCaseNotFound
		}

		tag, err = tx.Exec(ctx, `UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3`,
			transactionStatus.String(), now, transactionID)
		if err != nil {
			return fmt.Errorf("failed to update transaction status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errors.ErrTransactionNotFound
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to apply case action: %w", err)
	}
	return nil
}

func scanCase(row rowScanner) (*investigation.Case, error) {
	var c investigation.Case
	var statusStr, confidenceStr string
	var hypotheses, evidence, timeline, recommendations []byte
	var suggestions []string

	err := row.Scan(
		&c.ID, &c.PrimaryTransactionID, &statusStr, &confidenceStr,
		&hypotheses, &evidence, &timeline, &recommendations, &suggestions, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status, err = investigation.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}
	c.Confidence = risk.ParseConfidence(confidenceStr)
	c.Suggestions = suggestions

	if len(hypotheses) > 0 {
		if err := json.Unmarshal(hypotheses, &c.Hypotheses); err != nil {
			return nil, fmt.Errorf("failed to unmarshal hypotheses: %w", err)
		}
	}
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &c.Evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence: %w", err)
		}
	}
	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &c.Timeline); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeline: %w", err)
		}
	}
	if len(recommendations) > 0 {
		if err := json.Unmarshal(recommendations, &c.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
		}
	}
	return &c, nil
}

package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/risk"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// DecisionRepository implements append-only decision storage over
// PostgreSQL.
type DecisionRepository struct {
	db *pgxpool.Pool
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *pgxpool.Pool) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// CreateWithStatus inserts the decision row and updates the transaction
// status in one database transaction, so a concurrent reader can never
// observe one write without the other.
func (r *DecisionRepository) CreateWithStatus(ctx context.Context, d *risk.Decision, status transaction.Status) error {
	signalsJSON, err := json.Marshal(d.Signals)
	if err != nil {
		return fmt.Errorf("failed to marshal signals: %w", err)
	}

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO risk_decisions (
				id, transaction_id, risk_score, verdict, signals, rationale, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`

		if _, err := tx.Exec(ctx, insert,
			d.ID, d.TransactionID, d.RiskScore, d.Verdict.String(), signalsJSON, d.Rationale, d.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert decision: %w", err)
		}

		update := `UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3`
		tag, err := tx.Exec(ctx, update, status.String(), time.Now().UTC(), d.TransactionID)
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
		return fmt.Errorf("failed to persist decision: %w", err)
	}
	return nil
}

const decisionColumns = `id, transaction_id, risk_score, verdict, signals, rationale, created_at`

// LatestByTransaction returns the most recent decision for a transaction.
func (r *DecisionRepository) LatestByTransaction(ctx context.Context, transactionID uuid.UUID) (*risk.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM risk_decisions
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	d, err := scanDecision(r.db.QueryRow(ctx, query, transactionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrDecisionNotFound
		}
		return nil, fmt.Errorf("failed to get latest decision: %w", err)
	}
	return d, nil
}

// ListByTransaction returns all decisions for a transaction, newest first.
func (r *DecisionRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*risk.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM risk_decisions
		WHERE transaction_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var out []*risk.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	return out, nil
}

func scanDecision(row rowScanner) (*risk.Decision, error) {
	var d risk.Decision
	var verdictStr string
	var signalsJSON []byte

	err := row.Scan(&d.ID, &d.TransactionID, &d.RiskScore, &verdictStr, &signalsJSON, &d.Rationale, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	d.Verdict, err = risk.ParseVerdict(verdictStr)
	if err != nil {
		return nil, err
	}
	if len(signalsJSON) > 0 {
		if err := json.Unmarshal(signalsJSON, &d.Signals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal signals: %w", err)
		}
	}
	return &d, nil
}

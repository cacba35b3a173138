package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/errors"
	"github.com/fraudops/risk-adjudication-backend/internal/domain/transaction"
)

// TransactionRepository implements transaction storage over PostgreSQL.
type TransactionRepository struct {
	db *pgxpool.Pool
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	id, timestamp, type, amount, currency, user_id, account_age_days,
	country, ip_hash, device_id, psp, status, created_at, updated_at`

// Create inserts an ingested transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.db.Exec(ctx, query,
		t.ID, t.Timestamp, t.Type.String(), t.Amount, t.Currency, t.UserID, t.AccountAgeDays,
		nullable(t.Country), nullable(t.IPHash), nullable(t.DeviceID), nullable(t.PSP),
		t.Status.String(), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.NewConflictError(fmt.Sprintf("transaction %s already exists", t.ID))
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its id.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// ListByUserBefore returns the user's most recent transactions strictly
// before the given timestamp, oldest first. The limit bounds from the
// recent end so a user's latest activity is always visible.
func (r *TransactionRepository) ListByUserBefore(ctx context.Context, userID string, before time.Time, limit int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND timestamp < $2
		ORDER BY timestamp DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, userID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user transactions: %w", err)
	}
	defer rows.Close()

	out, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	reverseChronological(out)
	return out, nil
}

// ListLinked returns transactions from other users sharing the given
// network fingerprint or device, most recent first. At least one of ipHash
// and deviceID must be set; the caller skips the lookup otherwise.
func (r *TransactionRepository) ListLinked(ctx context.Context, ipHash, deviceID, excludeUserID string, limit int) ([]*transaction.Transaction, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)

	if ipHash != "" {
		args = append(args, ipHash)
		conditions = append(conditions, fmt.Sprintf("ip_hash = $%d", len(args)))
	}
	if deviceID != "" {
		args = append(args, deviceID)
		conditions = append(conditions, fmt.Sprintf("device_id = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	args = append(args, excludeUserID)
	userArg := len(args)
	args = append(args, limit)
	limitArg := len(args)

	query := fmt.Sprintf(`
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE (%s) AND user_id <> $%d
		ORDER BY timestamp DESC
		LIMIT $%d`, strings.Join(conditions, " OR "), userArg, limitArg)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var t transaction.Transaction
	var typStr, statusStr string
	var country, ipHash, deviceID, psp sql.NullString

	err := row.Scan(
		&t.ID, &t.Timestamp, &typStr, &t.Amount, &t.Currency, &t.UserID, &t.AccountAgeDays,
		&country, &ipHash, &deviceID, &psp, &statusStr, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type, err = transaction.ParseType(typStr)
	if err != nil {
		return nil, err
	}
	t.Status, err = transaction.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}
	t.Country = country.String
	t.IPHash = ipHash.String
	t.DeviceID = deviceID.String
	t.PSP = psp.String

	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]*transaction.Transaction, error) {
	var out []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// reverseChronological flips a newest-first result set into oldest-first.
func reverseChronological(txs []*transaction.Transaction) {
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
}

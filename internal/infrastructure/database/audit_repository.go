package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"github.com/fraudops/risk-adjudication-backend/internal/domain/audit"
)

// AuditRepository implements audit.Log over PostgreSQL. The table is
// append-only; no update or delete statement exists here.
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append records an audit event and returns its id.
func (r *AuditRepository) Append(ctx context.Context, actor string, eventType audit.EventType, payload map[string]interface{}) (uuid.UUID, error) {
	event, err := audit.NewEvent(actor, eventType, payload)
	if err != nil {
		return uuid.Nil, err
	}

	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, actor, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.Exec(ctx, query,
		event.ID, event.Actor, string(event.Type), payloadJSON, event.CreatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to append audit event: %w", err)
	}
	return event.ID, nil
}

// ListRecent returns the latest events, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*audit.Event, error) {
	query := `
		SELECT id, actor, event_type, payload, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1`

	return r.queryEvents(ctx, query, limit)
}

// ListRecentByTypes returns the latest events matching any of the given
// types, newest first.
func (r *AuditRepository) ListRecentByTypes(ctx context.Context, types []audit.EventType, limit int) ([]*audit.Event, error) {
	typeStrs := make([]string, len(types))
	for i, t := range types {
		typeStrs[i] = string(t)
	}

	query := `
		SELECT id, actor, event_type, payload, created_at
		FROM audit_events
		WHERE event_type = ANY($1::text[])
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryEvents(ctx, query, pq.Array(typeStrs), limit)
}

func (r *AuditRepository) queryEvents(ctx context.Context, query string, args ...interface{}) ([]*audit.Event, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var out []*audit.Event
	for rows.Next() {
		var event audit.Event
		var eventType string
		var payloadJSON []byte

		err := rows.Scan(&event.ID, &event.Actor, &eventType, &payloadJSON, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}

		event.Type = audit.EventType(eventType)
		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &event.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit payload: %w", err)
			}
		}
		out = append(out, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}
	return out, nil
}

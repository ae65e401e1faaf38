// Package postgres implements the audit store over a transactional outbox
// table. Events are written to the outbox and drained by a downstream relay;
// the table, not the process, is the durable record.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "attestor/pkg/domain"
	audit "attestor/pkg/platform/audit"
	txcontext "attestor/pkg/platform/tx"
)

// Schema creates the outbox table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
    id             UUID PRIMARY KEY,
    aggregate_type TEXT        NOT NULL,
    aggregate_id   TEXT        NOT NULL,
    event_type     TEXT        NOT NULL,
    payload        JSONB       NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_outbox_aggregate_idx
    ON audit_outbox (aggregate_type, aggregate_id, created_at);
`

// Store implements audit.Store using the transactional outbox pattern.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the outbox table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating audit_outbox schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure written to the outbox.
type outboxPayload struct {
	ID           string `json:"id"`
	Category     string `json:"category"`
	Timestamp    string `json:"timestamp"`
	Organization string `json:"organization,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Action       string `json:"action"`
	Actor        string `json:"actor,omitempty"`
	Name         string `json:"name,omitempty"`
	Reason       string `json:"reason,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Category is always derived from action; the eventCategories map in the
	// audit package is the source of truth.
	category := audit.AuditEvent(event.Action).Category()

	payload := outboxPayload{
		ID:           eventID.String(),
		Category:     string(category),
		Timestamp:    event.Timestamp.Format(time.RFC3339Nano),
		Organization: event.Organization.String(),
		Subject:      event.Subject.String(),
		Action:       event.Action,
		Actor:        event.Actor.String(),
		Name:         event.Name,
		Reason:       event.Reason,
		RequestID:    event.RequestID,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "validator"
	aggregateID := eventID.String()
	if !event.Organization.IsZero() {
		aggregateType = "organization"
		aggregateID = event.Organization.String()
	}

	query := `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByOrganization reads back events for one organization, oldest first.
func (s *Store) ListByOrganization(ctx context.Context, organization string) ([]audit.Event, error) {
	query := `
		SELECT payload FROM audit_outbox
		WHERE aggregate_type = 'organization' AND aggregate_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, organization)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		var p outboxPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		ts, _ := time.Parse(time.RFC3339Nano, p.Timestamp)
		events = append(events, audit.Event{
			Category:     audit.EventCategory(p.Category),
			Timestamp:    ts,
			Organization: id.Address(p.Organization),
			Subject:      id.Address(p.Subject),
			Action:       p.Action,
			Actor:        id.Address(p.Actor),
			Name:         p.Name,
			Reason:       p.Reason,
			RequestID:    p.RequestID,
		})
	}
	return events, rows.Err()
}

// Package postgres keeps the intake audit trail in the audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "enrollment/pkg/platform/audit"
	txcontext "enrollment/pkg/platform/tx"
)

// Schema creates the audit table. It is safe to apply on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id             UUID PRIMARY KEY,
	category       TEXT NOT NULL,
	action         TEXT NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL,
	session_id     TEXT NOT NULL,
	subject_hash   TEXT NOT NULL DEFAULT '',
	application_id TEXT NOT NULL DEFAULT '',
	decision       TEXT NOT NULL DEFAULT '',
	reason         TEXT NOT NULL DEFAULT '',
	request_id     TEXT NOT NULL DEFAULT '',
	channel        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_session_idx ON audit_events (session_id, occurred_at);
CREATE INDEX IF NOT EXISTS audit_events_occurred_idx ON audit_events (occurred_at DESC);
`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins the caller's transaction when one is in ctx.
func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Emit appends event under a fresh id.
func (s *Store) Emit(ctx context.Context, event audit.Event) error {
	return s.AppendWithID(ctx, uuid.New(), event)
}

// AppendWithID inserts event under eventID. Re-inserting an id is a no-op,
// which lets a consumer replay a topic without duplicating rows.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	event = event.Normalize(s.now())
	query := `
		INSERT INTO audit_events (
			id, category, action, occurred_at, session_id, subject_hash,
			application_id, decision, reason, request_id, channel
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(event.Category),
		string(event.Action),
		event.Timestamp.UTC(),
		event.SessionID,
		event.SubjectHash,
		event.ApplicationID,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.Channel,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT category, action, occurred_at, session_id, subject_hash,
		   application_id, decision, reason, request_id, channel
	FROM audit_events
`

// ListBySession returns the trail of one session, oldest first.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`WHERE session_id = $1 ORDER BY occurred_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the limit most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event            audit.Event
			category, action string
		)
		err := rows.Scan(
			&category,
			&action,
			&event.Timestamp,
			&event.SessionID,
			&event.SubjectHash,
			&event.ApplicationID,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.Channel,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Action = audit.AuditEvent(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

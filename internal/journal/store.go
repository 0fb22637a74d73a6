// Package journal keeps a local sqlite record of order transitions and an
// outbox of lifecycle events waiting to be streamed.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ismaiel54/fix-order-client/internal/msg"
	"github.com/ismaiel54/fix-order-client/internal/order"
	_ "modernc.org/sqlite"
)

// Store is the transition journal and its outbox
type Store struct {
	db    *sql.DB
	topic string
}

// TransitionRow is one journaled state change
type TransitionRow struct {
	ID           int64
	SessionID    string
	ClOrdID      string
	OrderID      string
	Symbol       string
	FromState    string
	ToState      string
	Reason       string
	AtUnixMillis int64
}

// OutboxEvent represents an event waiting to be published
type OutboxEvent struct {
	ID                  int64
	ClOrdID             string
	EventID             string
	Topic               string
	Key                 string
	PayloadJSON         string
	CreatedUnixMillis   int64
	PublishedUnixMillis sql.NullInt64
}

// Open creates or opens the journal at path. Events are queued for topic.
func Open(path, topic string) (*Store, error) {
	if topic == "" {
		topic = msg.TopicOrderLifecycle
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single connection: writers are serialized by sqlite anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, topic: topic}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS order_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			cl_ord_id TEXT NOT NULL,
			order_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			reason TEXT NOT NULL,
			at_unix_millis INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_cl_ord_id
			ON order_transitions(cl_ord_id)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cl_ord_id TEXT NOT NULL,
			event_id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			key TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL,
			published_unix_millis INTEGER NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox_events(published_unix_millis)
			WHERE published_unix_millis IS NULL`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// RecordTransition journals t and queues the matching lifecycle event in one transaction
func (s *Store) RecordTransition(ctx context.Context, sessionID string, t order.Transition) (OutboxEvent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	at := t.At.UnixMilli()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_transitions (session_id, cl_ord_id, order_id, symbol, from_state, to_state, reason, at_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, t.ClientOrderID, t.ExchangeOrderID, t.Symbol, t.From.String(), t.To.String(), t.Reason, at,
	)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to insert transition: %w", err)
	}

	ev := msg.LifecycleEventMsg{
		EventID:      uuid.NewString(),
		SessionID:    sessionID,
		ClOrdID:      t.ClientOrderID,
		OrderID:      t.ExchangeOrderID,
		Symbol:       t.Symbol,
		FromState:    t.From.String(),
		ToState:      t.To.String(),
		Reason:       t.Reason,
		TsUnixMillis: at,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (cl_ord_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		t.ClientOrderID, ev.EventID, s.topic, t.ClientOrderID, string(payload), at,
	)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to insert outbox event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to read outbox id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return OutboxEvent{
		ID:                id,
		ClOrdID:           t.ClientOrderID,
		EventID:           ev.EventID,
		Topic:             s.topic,
		Key:               t.ClientOrderID,
		PayloadJSON:       string(payload),
		CreatedUnixMillis: at,
	}, nil
}

// Transitions returns the journaled changes for one client order id, oldest first
func (s *Store) Transitions(ctx context.Context, clOrdID string) ([]TransitionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, cl_ord_id, order_id, symbol, from_state, to_state, reason, at_unix_millis
		 FROM order_transitions
		 WHERE cl_ord_id = ?
		 ORDER BY id ASC`,
		clOrdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var out []TransitionRow
	for rows.Next() {
		var r TransitionRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ClOrdID, &r.OrderID, &r.Symbol,
			&r.FromState, &r.ToState, &r.Reason, &r.AtUnixMillis); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListUnpublished returns unpublished outbox events
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cl_ord_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis
		 FROM outbox_events
		 WHERE published_unix_millis IS NULL
		 ORDER BY id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.ClOrdID, &e.EventID, &e.Topic, &e.Key,
			&e.PayloadJSON, &e.CreatedUnixMillis, &e.PublishedUnixMillis,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published
func (s *Store) MarkPublished(ctx context.Context, eventID string, nowMillis int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE outbox_events SET published_unix_millis = ? WHERE event_id = ?",
		nowMillis, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

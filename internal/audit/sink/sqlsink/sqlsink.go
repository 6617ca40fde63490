// Package sqlsink writes audit events to an outbox table through sqlx. The
// same code runs on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite);
// queries are written with ? placeholders and rebound per driver.
package sqlsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"orgtrakker/internal/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
    id            VARCHAR(36) PRIMARY KEY,
    tenant_id     VARCHAR(128) NOT NULL,
    entity_type   VARCHAR(64) NOT NULL,
    entity_id     VARCHAR(128) NOT NULL,
    action        VARCHAR(16) NOT NULL,
    payload       TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL,
    published_at  TIMESTAMP NULL
)`

// Entry is one outbox row.
type Entry struct {
	ID          string     `db:"id"`
	TenantID    string     `db:"tenant_id"`
	EntityType  string     `db:"entity_type"`
	EntityID    string     `db:"entity_id"`
	Action      string     `db:"action"`
	Payload     string     `db:"payload"`
	CreatedAt   time.Time  `db:"created_at"`
	PublishedAt *time.Time `db:"published_at"`
}

// Event decodes the stored payload.
func (e Entry) Event() (audit.Event, error) {
	var ev audit.Event
	if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
		return audit.Event{}, fmt.Errorf("decode outbox entry %s: %w", e.ID, err)
	}
	return ev, nil
}

type Sink struct {
	db *sqlx.DB
}

// Open connects with driverName "postgres" or "sqlite".
func Open(ctx context.Context, driverName, dsn string) (*Sink, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit outbox (%s): %w", driverName, err)
	}
	if driverName == "sqlite" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}
	return New(db), nil
}

func New(db *sqlx.DB) *Sink {
	return &Sink{db: db}
}

// EnsureSchema creates the outbox table if missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit outbox: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	query := s.db.Rebind(`
		INSERT INTO audit_outbox (id, tenant_id, entity_type, entity_id, action, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		event.ID.String(),
		event.TenantID,
		event.EntityType,
		event.EntityID,
		string(event.Action),
		string(payload),
		event.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// Pending returns up to limit unpublished entries, oldest first.
func (s *Sink) Pending(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	query := s.db.Rebind(`
		SELECT id, tenant_id, entity_type, entity_id, action, payload, created_at, published_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("select pending outbox entries: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps the given entries as delivered.
func (s *Sink) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE audit_outbox SET published_at = ? WHERE id IN (?)`, at.UTC(), ids)
	if err != nil {
		return fmt.Errorf("build mark published: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("mark outbox entries published: %w", err)
	}
	return nil
}

// ListByEntity returns every stored event for one entity, oldest first.
func (s *Sink) ListByEntity(ctx context.Context, entityType, entityID string) ([]audit.Event, error) {
	var entries []Entry
	query := s.db.Rebind(`
		SELECT id, tenant_id, entity_type, entity_id, action, payload, created_at, published_at
		FROM audit_outbox
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY created_at, id`)
	if err := s.db.SelectContext(ctx, &entries, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("select audit events: %w", err)
	}
	events := make([]audit.Event, 0, len(entries))
	for _, e := range entries {
		ev, err := e.Event()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

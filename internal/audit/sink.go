package audit

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSink writes audit events to the audit_logs table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a PostgreSQL-backed audit sink.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

const insertAuditLog = `
INSERT INTO audit_logs (id, occurred_at, entity_type, entity_id, action, actor_id, categories, summary, context)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`

// Write persists one audit event. Records are append-only; there is no
// update path.
func (s *PostgresSink) Write(ctx context.Context, event Event) error {
	summary, err := json.Marshal(event.Summary)
	if err != nil {
		return err
	}
	redacted, err := json.Marshal(event.Context)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, insertAuditLog,
		event.ID,
		event.OccurredAt,
		event.EntityType,
		event.EntityID,
		event.Action,
		event.ActorID,
		event.Categories,
		summary,
		redacted,
	)
	return err
}

// MemorySink collects events in memory. Used in tests and as the sink for
// store-less deployments.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an in-memory audit sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends the event.
func (s *MemorySink) Write(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

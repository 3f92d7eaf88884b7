// Package audit persists immutable records of rule executions for
// compliance history. Writes are asynchronous and best-effort: a sink
// failure is logged and swallowed, never surfaced to the evaluation path.
package audit

import (
	"context"
	"time"
)

// ActionRuleExecution is the action recorded for one engine call.
const ActionRuleExecution = "RULE_EXECUTION"

// Summary mirrors the engine's execution summary as plain counts.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Referred int `json:"referred"`
	Declined int `json:"declined"`
}

// Event is a canonical audit record for one non-test rule execution.
// Context must already be redacted by the caller; the audit layer stores
// what it is given.
type Event struct {
	ID         string         `json:"id"`
	OccurredAt time.Time      `json:"occurredAt"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Action     string         `json:"action"`
	ActorID    string         `json:"actorId,omitempty"`
	Categories []string       `json:"categories"`
	Summary    Summary        `json:"summary"`
	Context    map[string]any `json:"context,omitempty"`
}

// Sink persists audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

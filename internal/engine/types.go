package engine

import (
	"context"
	"time"

	"github.com/ozsure/quoting/internal/audit"
	"github.com/ozsure/quoting/internal/rules"
)

// Request describes one rule execution call. TestMode suppresses the audit
// side effect entirely; nothing about a test execution is persisted.
type Request struct {
	EntityType string           `json:"entityType"`
	EntityID   string           `json:"entityId"`
	Context    map[string]any   `json:"context"`
	Categories []rules.Category `json:"categories"`
	ActorID    string           `json:"actorId,omitempty"`
	TestMode   bool             `json:"testMode,omitempty"`
}

// Result is the outcome of evaluating a single rule. Results are
// append-only within an execution and never mutated afterwards, except for
// the explicit underwriting reclassification in Decide.
type Result struct {
	RuleID     string          `json:"ruleId"`
	RuleName   string          `json:"ruleName"`
	Category   rules.Category  `json:"category"`
	Condition  rules.Condition `json:"condition"`
	Action     rules.Action    `json:"action"`
	Outcome    rules.Outcome   `json:"outcome"`
	Adjustment float64         `json:"adjustment,omitempty"`
	Error      string          `json:"error,omitempty"`
	ExecutedAt time.Time       `json:"executedAt"`
}

// Summary aggregates outcome counts for one execution. It is derived from
// the result rows, never set independently.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Referred int `json:"referred"`
	Declined int `json:"declined"`
}

// Execution is the full result set of one ExecuteRules call.
type Execution struct {
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	ExecutedAt time.Time `json:"executedAt"`
	Rules      []Result  `json:"rules"`
	Summary    Summary   `json:"summary"`
}

// RuleQuery selects the effective rule set for an execution. The source is
// expected to return rules already filtered to active, in-window and
// applicability-matched, ordered by priority then creation sequence.
type RuleQuery struct {
	EntityType     string
	Categories     []rules.Category
	LineOfBusiness string
	State          string
	AsOf           time.Time
}

// RuleSource supplies effective rules. Implemented by the store layer.
type RuleSource interface {
	EffectiveRules(ctx context.Context, q RuleQuery) ([]rules.Rule, error)
}

// AuditRecorder receives one record per non-test execution. Implemented by
// the audit service; recording must never block or fail the execution.
type AuditRecorder interface {
	Record(event audit.Event)
}

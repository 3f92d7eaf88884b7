// Package store persists rule and rating-table definitions. The engine
// consumes these through narrow read interfaces and never knows how the
// definitions were stored or fetched.
package store

import (
	"context"
	"errors"

	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rating"
	"github.com/ozsure/quoting/internal/rules"
)

var (
	// ErrRuleNotFound is returned when a rule id does not exist.
	ErrRuleNotFound = errors.New("rule not found")
)

// Store is the combined persistence interface. Implementations must be
// safe for concurrent use.
type Store interface {
	// EffectiveRules returns the active, in-window, applicability-matched
	// rules for the query, ordered ascending by priority then creation
	// sequence.
	EffectiveRules(ctx context.Context, q engine.RuleQuery) ([]rules.Rule, error)

	// ListRules returns every rule definition, newest last.
	ListRules(ctx context.Context) ([]rules.Rule, error)

	// GetRule returns a single rule by id, or ErrRuleNotFound.
	GetRule(ctx context.Context, id string) (*rules.Rule, error)

	// UpsertRule creates or replaces a rule definition. The stored rule
	// keeps its original creation sequence on replace.
	UpsertRule(ctx context.Context, r rules.Rule) error

	// DeleteRule removes a rule by id. Deleting a missing rule is a no-op.
	DeleteRule(ctx context.Context, id string) error

	// ActiveTable returns the highest-version active rating table for the
	// line of business, or rating.ErrTableNotFound.
	ActiveTable(ctx context.Context, line rating.LineOfBusiness) (*rating.Table, error)

	// UpsertTable creates or replaces a rating table version.
	UpsertTable(ctx context.Context, t rating.Table) error

	// Close releases any resources held by the store.
	Close() error
}

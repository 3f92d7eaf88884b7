package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by condition and rule validation.
var (
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidCategory  = errors.New("invalid rule category")
	ErrInvalidDecision  = errors.New("invalid action decision")
)

// logicalOperators are the internal-node operators of the expression tree.
var logicalOperators = map[Operator]struct{}{
	OpAnd: {},
	OpOr:  {},
	OpNot: {},
}

// comparisonOperators are the leaf predicate operators.
var comparisonOperators = map[Operator]struct{}{
	OpEquals:       {},
	OpNotEquals:    {},
	OpGreaterThan:  {},
	OpLessThan:     {},
	OpGreaterEqual: {},
	OpLessEqual:    {},
	OpContains:     {},
	OpIn:           {},
	OpNotIn:        {},
	OpIsNull:       {},
	OpIsNotNull:    {},
}

// ValidateCondition checks the structural invariants of a condition tree:
// AND/OR must have at least one child, NOT exactly one, leaf predicates
// must name a field, and every operator must be recognised. An empty
// AND/OR is rejected rather than treated as vacuously true.
// It is a pure function: it never mutates c and has no side effects.
func ValidateCondition(c Condition) error {
	switch c.Operator {
	case OpAnd, OpOr:
		if len(c.Conditions) == 0 {
			return fmt.Errorf("%w: %s requires at least one child condition", ErrInvalidCondition, c.Operator)
		}
		for i, child := range c.Conditions {
			if err := ValidateCondition(child); err != nil {
				return fmt.Errorf("%s condition[%d]: %w", c.Operator, i, err)
			}
		}
		return nil
	case OpNot:
		if len(c.Conditions) != 1 {
			return fmt.Errorf("%w: NOT requires exactly one child condition, got %d", ErrInvalidCondition, len(c.Conditions))
		}
		return ValidateCondition(c.Conditions[0])
	}

	if _, ok := comparisonOperators[c.Operator]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, c.Operator)
	}
	if c.Field == "" {
		return fmt.Errorf("%w: operator %s requires a field", ErrInvalidCondition, c.Operator)
	}
	if len(c.Conditions) != 0 {
		return fmt.Errorf("%w: operator %s must not carry child conditions", ErrInvalidCondition, c.Operator)
	}
	return nil
}

// ValidateRule performs strict validation of a rule definition before it is
// accepted into a store.
func ValidateRule(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: rule id must not be empty", ErrInvalidCondition)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: rule name must not be empty", ErrInvalidCondition)
	}
	if _, ok := ValidCategories[r.Category]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
	}
	if err := ValidateCondition(r.Condition); err != nil {
		return err
	}
	return validateAction(r.Category, r.Action)
}

func validateAction(cat Category, a Action) error {
	if a.Decision == "" {
		return nil
	}
	switch a.Decision {
	case DecisionAccept, DecisionRefer, DecisionDecline:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDecision, a.Decision)
	}
}

// IsLogical reports whether op is an internal-node operator.
func IsLogical(op Operator) bool {
	_, ok := logicalOperators[op]
	return ok
}

// Package engine evaluates structured business conditions against a risk
// context and orchestrates rule execution across categories with
// deterministic ordering and outcome aggregation.
package engine

import (
	"fmt"

	"github.com/ozsure/quoting/internal/rules"
)

// Evaluate computes the truth value of a condition tree against an
// evaluation context by depth-first recursive descent. It never errors for
// a well-formed tree; a malformed tree (empty AND/OR, NOT with anything
// but one child) or an unrecognised operator is a hard error, not a silent
// false.
func Evaluate(cond rules.Condition, context map[string]any) (bool, error) {
	switch cond.Operator {
	case rules.OpAnd:
		if len(cond.Conditions) == 0 {
			return false, fmt.Errorf("%w: AND requires at least one child condition", rules.ErrInvalidCondition)
		}
		for _, child := range cond.Conditions {
			ok, err := Evaluate(child, context)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case rules.OpOr:
		if len(cond.Conditions) == 0 {
			return false, fmt.Errorf("%w: OR requires at least one child condition", rules.ErrInvalidCondition)
		}
		for _, child := range cond.Conditions {
			ok, err := Evaluate(child, context)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case rules.OpNot:
		if len(cond.Conditions) != 1 {
			return false, fmt.Errorf("%w: NOT requires exactly one child condition, got %d", rules.ErrInvalidCondition, len(cond.Conditions))
		}
		ok, err := Evaluate(cond.Conditions[0], context)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}

	resolved, present := ResolveField(context, cond.Field)
	return compare(cond.Operator, cond.Field, resolved, present, cond.Value)
}

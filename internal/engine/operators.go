package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ozsure/quoting/internal/rules"
)

// compare evaluates one leaf predicate against a resolved field value.
// present is false when the field was absent from the context; operators
// define absent behaviour explicitly rather than coercing:
//
//	EQUALS           absent -> false
//	NOT_EQUALS       absent -> true
//	orderings        absent -> evaluation error
//	CONTAINS         absent -> false
//	IN               absent -> false
//	NOT_IN           absent -> true
//	IS_NULL          true for absent or present nil
//	IS_NOT_NULL      false for absent or present nil
//
// Type-mismatched ordering comparisons are evaluation errors, never a
// silent false or an implicit coercion.
func compare(op rules.Operator, field string, resolved any, present bool, literal any) (bool, error) {
	switch op {
	case rules.OpEquals:
		return present && looseEqual(resolved, literal), nil

	case rules.OpNotEquals:
		return !present || !looseEqual(resolved, literal), nil

	case rules.OpGreaterThan, rules.OpLessThan, rules.OpGreaterEqual, rules.OpLessEqual:
		if !present {
			return false, fmt.Errorf("field %q is absent: %s requires a comparable value", field, op)
		}
		return compareOrdering(op, field, resolved, literal)

	case rules.OpContains:
		if !present {
			return false, nil
		}
		return contains(field, resolved, literal)

	case rules.OpIn:
		return membership(op, field, resolved, present, literal)

	case rules.OpNotIn:
		in, err := membership(rules.OpIn, field, resolved, present, literal)
		if err != nil {
			return false, err
		}
		return !in, nil

	case rules.OpIsNull:
		return !present || resolved == nil, nil

	case rules.OpIsNotNull:
		return present && resolved != nil, nil

	default:
		return false, fmt.Errorf("%w: %q", rules.ErrUnknownOperator, op)
	}
}

func compareOrdering(op rules.Operator, field string, resolved, literal any) (bool, error) {
	if lf, lok := toFloat64(resolved); lok {
		rf, rok := toFloat64(literal)
		if !rok {
			return false, orderingMismatch(op, field, resolved, literal)
		}
		return orderingHolds(op, cmpFloat(lf, rf)), nil
	}

	if ls, lok := resolved.(string); lok {
		rs, rok := literal.(string)
		if !rok {
			return false, orderingMismatch(op, field, resolved, literal)
		}
		return orderingHolds(op, strings.Compare(ls, rs)), nil
	}

	return false, orderingMismatch(op, field, resolved, literal)
}

func orderingMismatch(op rules.Operator, field string, resolved, literal any) error {
	return fmt.Errorf("%s on field %q: cannot order %T against %T", op, field, resolved, literal)
}

func orderingHolds(op rules.Operator, cmp int) bool {
	switch op {
	case rules.OpGreaterThan:
		return cmp > 0
	case rules.OpLessThan:
		return cmp < 0
	case rules.OpGreaterEqual:
		return cmp >= 0
	default:
		return cmp <= 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// contains checks substring containment for strings and membership for
// resolved slices. Other resolved types cannot support containment and are
// evaluation errors.
func contains(field string, resolved, literal any) (bool, error) {
	switch v := resolved.(type) {
	case string:
		s, ok := literal.(string)
		if !ok {
			return false, fmt.Errorf("CONTAINS on field %q: string field requires a string literal, got %T", field, literal)
		}
		return strings.Contains(v, s), nil
	case []any:
		for _, item := range v {
			if looseEqual(item, literal) {
				return true, nil
			}
		}
		return false, nil
	case []string:
		s, ok := literal.(string)
		if !ok {
			return false, fmt.Errorf("CONTAINS on field %q: string list requires a string literal, got %T", field, literal)
		}
		for _, item := range v {
			if item == s {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("CONTAINS on field %q: %T does not support containment", field, resolved)
	}
}

// membership tests whether the resolved value is an element of the literal
// list. The literal must be a list: scalars are not coerced to
// single-element collections.
func membership(op rules.Operator, field string, resolved any, present bool, literal any) (bool, error) {
	list, ok := toAnySlice(literal)
	if !ok {
		return false, fmt.Errorf("%s on field %q: literal must be a list, got %T", op, field, literal)
	}
	if !present {
		return false, nil
	}
	for _, item := range list {
		if looseEqual(resolved, item) {
			return true, nil
		}
	}
	return false, nil
}

// looseEqual compares two scalars with numeric widening: ints, floats and
// json.Number values of equal magnitude are equal regardless of Go type.
// Values of incomparable kinds are simply unequal.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat64(a); ok {
		bf, ok := toFloat64(b)
		return ok && af == bf
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toAnySlice(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(list))
		for i, f := range list {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

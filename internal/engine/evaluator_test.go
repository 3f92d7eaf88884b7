package engine

import (
	"testing"

	"github.com/ozsure/quoting/internal/rules"
)

func leaf(op rules.Operator, field string, value any) rules.Condition {
	return rules.Condition{Operator: op, Field: field, Value: value}
}

func TestEvaluate_Logical(t *testing.T) {
	context := map[string]any{
		"driverAge": 22.0,
		"state":     "NSW",
		"claims":    0.0,
	}

	tests := []struct {
		name string
		cond rules.Condition
		want bool
	}{
		{
			"AND all true",
			rules.Condition{Operator: rules.OpAnd, Conditions: []rules.Condition{
				leaf(rules.OpEquals, "state", "NSW"),
				leaf(rules.OpLessThan, "driverAge", 25),
			}},
			true,
		},
		{
			"AND one false",
			rules.Condition{Operator: rules.OpAnd, Conditions: []rules.Condition{
				leaf(rules.OpEquals, "state", "VIC"),
				leaf(rules.OpLessThan, "driverAge", 25),
			}},
			false,
		},
		{
			"OR one true",
			rules.Condition{Operator: rules.OpOr, Conditions: []rules.Condition{
				leaf(rules.OpEquals, "state", "VIC"),
				leaf(rules.OpEquals, "claims", 0),
			}},
			true,
		},
		{
			"OR all false",
			rules.Condition{Operator: rules.OpOr, Conditions: []rules.Condition{
				leaf(rules.OpEquals, "state", "VIC"),
				leaf(rules.OpGreaterThan, "claims", 2),
			}},
			false,
		},
		{
			"NOT inverts",
			rules.Condition{Operator: rules.OpNot, Conditions: []rules.Condition{
				leaf(rules.OpEquals, "state", "VIC"),
			}},
			true,
		},
		{
			"double NOT is identity",
			rules.Condition{Operator: rules.OpNot, Conditions: []rules.Condition{
				{Operator: rules.OpNot, Conditions: []rules.Condition{
					leaf(rules.OpEquals, "state", "NSW"),
				}},
			}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.cond, context)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_MalformedTree(t *testing.T) {
	context := map[string]any{"a": 1}

	if _, err := Evaluate(rules.Condition{Operator: rules.OpAnd}, context); err == nil {
		t.Error("Expected error for empty AND")
	}
	if _, err := Evaluate(rules.Condition{Operator: rules.OpOr}, context); err == nil {
		t.Error("Expected error for empty OR")
	}
	if _, err := Evaluate(rules.Condition{Operator: rules.OpNot, Conditions: []rules.Condition{
		leaf(rules.OpIsNull, "a", nil),
		leaf(rules.OpIsNull, "a", nil),
	}}, context); err == nil {
		t.Error("Expected error for NOT with two children")
	}
	if _, err := Evaluate(leaf("MATCHES", "a", 1), context); err == nil {
		t.Error("Expected error for unknown operator")
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	context := map[string]any{"present": 1.0}

	// The second child would error (ordering on an absent field), but AND
	// must stop at the first false child before reaching it.
	cond := rules.Condition{Operator: rules.OpAnd, Conditions: []rules.Condition{
		leaf(rules.OpEquals, "present", 2),
		leaf(rules.OpGreaterThan, "missing", 10),
	}}
	got, err := Evaluate(cond, context)
	if err != nil {
		t.Fatalf("AND should short-circuit before the erroring child: %v", err)
	}
	if got {
		t.Error("Expected false")
	}

	// Same for OR once a child is true.
	cond = rules.Condition{Operator: rules.OpOr, Conditions: []rules.Condition{
		leaf(rules.OpEquals, "present", 1),
		leaf(rules.OpGreaterThan, "missing", 10),
	}}
	got, err = Evaluate(cond, context)
	if err != nil {
		t.Fatalf("OR should short-circuit before the erroring child: %v", err)
	}
	if !got {
		t.Error("Expected true")
	}
}

func TestEvaluate_DottedFields(t *testing.T) {
	context := map[string]any{
		"vehicle": map[string]any{
			"value": 18000.0,
			"security": map[string]any{
				"features": []any{"ALARM", "CCTV"},
			},
		},
	}

	got, err := Evaluate(leaf(rules.OpLessThan, "vehicle.value", 25000), context)
	if err != nil || !got {
		t.Errorf("Nested ordering = %v, %v; want true", got, err)
	}

	got, err = Evaluate(leaf(rules.OpContains, "vehicle.security.features", "ALARM"), context)
	if err != nil || !got {
		t.Errorf("Nested containment = %v, %v; want true", got, err)
	}

	got, err = Evaluate(leaf(rules.OpIsNull, "vehicle.colour", nil), context)
	if err != nil || !got {
		t.Errorf("IS_NULL on missing nested field = %v, %v; want true", got, err)
	}
}

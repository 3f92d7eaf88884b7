package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseCondition decodes a stored JSON condition definition into its tree
// form and validates it. Rules keep the parsed tree for their lifetime so
// evaluation never re-parses JSON.
func ParseCondition(raw []byte) (Condition, error) {
	var c Condition
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&c); err != nil {
		return Condition{}, fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}
	if err := ValidateCondition(c); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// ParseAction decodes a stored JSON action definition. Unknown keys are
// ignored; an unknown decision value is rejected.
func ParseAction(raw []byte) (Action, error) {
	var a Action
	if len(raw) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return Action{}, fmt.Errorf("invalid action payload: %w", err)
	}
	if err := validateAction("", a); err != nil {
		return Action{}, err
	}
	return a, nil
}

// EncodeCondition renders a condition tree back to its stored JSON form.
func EncodeCondition(c Condition) ([]byte, error) {
	return json.Marshal(c)
}

// EncodeAction renders an action payload back to its stored JSON form.
func EncodeAction(a Action) ([]byte, error) {
	return json.Marshal(a)
}

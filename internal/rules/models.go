package rules

import "time"

// Category determines evaluation semantics and outcome interpretation for a rule.
type Category string

const (
	CategoryUnderwriting Category = "UNDERWRITING"
	CategoryRating       Category = "RATING"
	CategoryClaims       Category = "CLAIMS"
	CategoryCompliance   Category = "COMPLIANCE"
)

// Outcome is the per-rule result of one execution.
type Outcome string

const (
	OutcomePass    Outcome = "PASS"
	OutcomeFail    Outcome = "FAIL"
	OutcomeRefer   Outcome = "REFER"
	OutcomeDecline Outcome = "DECLINE"
	OutcomeError   Outcome = "ERROR"
)

// Decision is the underwriting verdict encoded in a rule's action payload.
type Decision string

const (
	DecisionAccept  Decision = "ACCEPT"
	DecisionRefer   Decision = "REFER"
	DecisionDecline Decision = "DECLINE"
)

// Operator identifies a node in a condition expression tree.
// AND/OR/NOT are internal nodes; the rest are leaf predicates.
type Operator string

const (
	OpAnd          Operator = "AND"
	OpOr           Operator = "OR"
	OpNot          Operator = "NOT"
	OpEquals       Operator = "EQUALS"
	OpNotEquals    Operator = "NOT_EQUALS"
	OpGreaterThan  Operator = "GREATER_THAN"
	OpLessThan     Operator = "LESS_THAN"
	OpGreaterEqual Operator = "GREATER_EQUAL"
	OpLessEqual    Operator = "LESS_EQUAL"
	OpContains     Operator = "CONTAINS"
	OpIn           Operator = "IN"
	OpNotIn        Operator = "NOT_IN"
	OpIsNull       Operator = "IS_NULL"
	OpIsNotNull    Operator = "IS_NOT_NULL"
)

// Condition is one node of a rule's boolean expression tree.
// Internal nodes (AND/OR/NOT) carry Conditions; leaf predicates carry
// Field, and for most operators a literal Value. Conditions are parsed
// from their stored JSON form once at rule-load time and evaluated as-is
// afterwards.
type Condition struct {
	Operator   Operator    `json:"operator"`
	Field      string      `json:"field,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// Action is a rule's typed action payload. For RATING rules Adjustment is
// the premium delta contributed when the condition holds; for the other
// categories Decision drives the accept/refer/decline interpretation.
type Action struct {
	Decision   Decision `json:"decision,omitempty"`
	Adjustment float64  `json:"adjustment,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// Rule is an immutable versioned rule definition. Applicability slices are
// restriction sets: nil or empty means unrestricted. Seq is the creation
// order and serves as the stable tie-break key when priorities collide.
type Rule struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Category           Category   `json:"category"`
	Priority           int        `json:"priority"`
	Condition          Condition  `json:"condition"`
	Action             Action     `json:"action"`
	ApplicableEntities []string   `json:"applicableEntities,omitempty"`
	ApplicableLines    []string   `json:"applicableLines,omitempty"`
	ApplicableStates   []string   `json:"applicableStates,omitempty"`
	IsActive           bool       `json:"isActive"`
	Version            int        `json:"version"`
	EffectiveFrom      time.Time  `json:"effectiveFrom"`
	EffectiveTo        *time.Time `json:"effectiveTo,omitempty"`
	Seq                int64      `json:"-"`
}

// IsEffective reports whether the rule is active and within its activation
// window at the given instant.
func (r Rule) IsEffective(at time.Time) bool {
	if !r.IsActive {
		return false
	}
	if at.Before(r.EffectiveFrom) {
		return false
	}
	if r.EffectiveTo != nil && at.After(*r.EffectiveTo) {
		return false
	}
	return true
}

// AppliesToEntity reports whether the rule targets the given entity type.
func (r Rule) AppliesToEntity(entityType string) bool {
	return matchOrUnrestricted(r.ApplicableEntities, entityType)
}

// AppliesToLine reports whether the rule targets the given line of business.
func (r Rule) AppliesToLine(line string) bool {
	return matchOrUnrestricted(r.ApplicableLines, line)
}

// AppliesToState reports whether the rule targets the given jurisdiction.
func (r Rule) AppliesToState(state string) bool {
	return matchOrUnrestricted(r.ApplicableStates, state)
}

func matchOrUnrestricted(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ValidCategories is the closed set of rule categories.
var ValidCategories = map[Category]struct{}{
	CategoryUnderwriting: {},
	CategoryRating:       {},
	CategoryClaims:       {},
	CategoryCompliance:   {},
}

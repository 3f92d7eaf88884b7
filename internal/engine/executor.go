package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozsure/quoting/internal/audit"
	"github.com/ozsure/quoting/internal/rules"
)

// Executor runs rule batches against an evaluation context. It holds no
// per-call state; concurrent executions with different contexts are fully
// independent.
type Executor struct {
	source RuleSource
	audit  AuditRecorder
	clock  audit.Clock
	log    zerolog.Logger
}

// NewExecutor creates an executor. recorder may be nil, in which case no
// audit records are emitted at all.
func NewExecutor(source RuleSource, recorder AuditRecorder, log zerolog.Logger) *Executor {
	return &Executor{
		source: source,
		audit:  recorder,
		clock:  audit.SystemClock{},
		log:    log,
	}
}

// WithClock overrides the executor's clock. Tests only.
func (e *Executor) WithClock(clock audit.Clock) *Executor {
	e.clock = clock
	return e
}

// ExecuteRules evaluates every effective rule in the requested categories,
// in the caller-specified category order, against the request context.
//
// Per category, rules run in ascending priority with creation order as the
// stable tie-break. Outcome mapping is category-specific: underwriting,
// claims and compliance rules PASS or FAIL on their condition; rating
// rules always PASS and contribute an adjustment (zero when the condition
// does not hold). A per-rule evaluation error is isolated to that rule's
// ERROR row and never aborts the batch.
//
// Unless TestMode is set, one audit record with the shallow-redacted
// context is emitted as a fire-and-forget side effect.
func (e *Executor) ExecuteRules(ctx context.Context, req Request) (*Execution, error) {
	now := e.clock.Now()
	exec := &Execution{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		ExecutedAt: now,
		Rules:      []Result{},
	}

	if len(req.Categories) == 0 {
		return exec, nil
	}
	for _, cat := range req.Categories {
		if _, ok := rules.ValidCategories[cat]; !ok {
			return nil, fmt.Errorf("%w: %q", rules.ErrInvalidCategory, cat)
		}
	}

	applicable, err := e.source.EffectiveRules(ctx, RuleQuery{
		EntityType: req.EntityType,
		Categories: req.Categories,
		AsOf:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("load effective rules: %w", err)
	}

	for _, cat := range req.Categories {
		batch := filterByCategory(applicable, cat)
		sortRules(batch)
		for _, rule := range batch {
			result := e.evaluateRule(rule, cat, req.Context, now)
			exec.Rules = append(exec.Rules, result)
			tally(&exec.Summary, result.Outcome)
		}
	}

	if !req.TestMode && e.audit != nil {
		e.audit.Record(audit.Event{
			EntityType: req.EntityType,
			EntityID:   req.EntityID,
			Action:     audit.ActionRuleExecution,
			ActorID:    req.ActorID,
			Categories: categoryNames(req.Categories),
			Summary: audit.Summary{
				Total:    exec.Summary.Total,
				Passed:   exec.Summary.Passed,
				Failed:   exec.Summary.Failed,
				Referred: exec.Summary.Referred,
				Declined: exec.Summary.Declined,
			},
			Context: SanitizeContext(req.Context),
		})
	}

	return exec, nil
}

func (e *Executor) evaluateRule(rule rules.Rule, cat rules.Category, context map[string]any, now time.Time) Result {
	result := Result{
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Category:   cat,
		Condition:  rule.Condition,
		Action:     rule.Action,
		ExecutedAt: now,
	}

	passed, err := Evaluate(rule.Condition, context)
	if err != nil {
		e.log.Error().Err(err).Str("rule_id", rule.ID).Str("category", string(cat)).
			Msg("rule evaluation failed")
		result.Outcome = rules.OutcomeError
		result.Error = err.Error()
		return result
	}

	if cat == rules.CategoryRating {
		// Rating rules never fail; a non-matching condition contributes zero.
		result.Outcome = rules.OutcomePass
		if passed {
			result.Adjustment = rule.Action.Adjustment
		}
		return result
	}

	if passed {
		result.Outcome = rules.OutcomePass
	} else {
		result.Outcome = rules.OutcomeFail
	}
	return result
}

// Decide reclassifies PASS underwriting rows by their action decision and
// returns the overall verdict: DECLINE if any processed underwriting rule
// resolved to a decline, else REFER if any resolved to a refer, else
// ACCEPT. Rows whose condition did not hold never contribute, whatever
// their action payload says. Summary counters are updated in place.
func Decide(exec *Execution) rules.Decision {
	decision := rules.DecisionAccept
	for i := range exec.Rules {
		row := &exec.Rules[i]
		if row.Category != rules.CategoryUnderwriting || row.Outcome != rules.OutcomePass {
			continue
		}
		switch row.Action.Decision {
		case rules.DecisionDecline:
			row.Outcome = rules.OutcomeDecline
			exec.Summary.Passed--
			exec.Summary.Declined++
			decision = rules.DecisionDecline
		case rules.DecisionRefer:
			row.Outcome = rules.OutcomeRefer
			exec.Summary.Passed--
			exec.Summary.Referred++
			if decision != rules.DecisionDecline {
				decision = rules.DecisionRefer
			}
		}
	}
	return decision
}

func filterByCategory(all []rules.Rule, cat rules.Category) []rules.Rule {
	out := make([]rules.Rule, 0, len(all))
	for _, r := range all {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

// sortRules orders ascending by priority, ties broken by creation
// sequence. The sort is deterministic under any permutation of
// equal-priority input.
func sortRules(batch []rules.Rule) {
	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].Priority != batch[j].Priority {
			return batch[i].Priority < batch[j].Priority
		}
		return batch[i].Seq < batch[j].Seq
	})
}

func tally(s *Summary, outcome rules.Outcome) {
	s.Total++
	switch outcome {
	case rules.OutcomePass:
		s.Passed++
	case rules.OutcomeFail:
		s.Failed++
	case rules.OutcomeRefer:
		s.Referred++
	case rules.OutcomeDecline:
		s.Declined++
	}
}

func categoryNames(cats []rules.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

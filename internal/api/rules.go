package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rules"
	"github.com/ozsure/quoting/internal/store"
	"github.com/ozsure/quoting/internal/telemetry"
)

type executeResponse struct {
	Execution *engine.Execution `json:"execution"`
	Decision  rules.Decision    `json:"decision"`
}

// handleExecuteRules runs the requested rule categories against the
// supplied context and returns the per-rule results, summary, and the
// aggregated underwriting decision.
func (s *Server) handleExecuteRules(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.EntityType) == "" {
		BadRequestError(w, r, ErrCodeMissingField, "entityType is required")
		return
	}
	if req.Context == nil {
		BadRequestError(w, r, ErrCodeMissingField, "context is required")
		return
	}

	exec, err := s.executor.ExecuteRules(r.Context(), req)
	if err != nil {
		if errors.Is(err, rules.ErrInvalidCategory) {
			BadRequestError(w, r, ErrCodeInvalidCategory, err.Error())
			return
		}
		s.log.Error().Err(err).Str("entity_type", req.EntityType).Msg("rule execution failed")
		InternalError(w, r, "rule execution failed")
		return
	}

	for _, cat := range req.Categories {
		telemetry.RuleExecutions.WithLabelValues(string(cat)).Inc()
	}

	writeJSON(w, http.StatusOK, executeResponse{
		Execution: exec,
		Decision:  engine.Decide(exec),
	})
}

// ruleRequest is the admin payload for creating or replacing a rule.
// Condition and action arrive as raw JSON and go through the same
// parse-and-validate path the stores use.
type ruleRequest struct {
	ID                 string          `json:"id,omitempty"`
	Name               string          `json:"name"`
	Description        string          `json:"description,omitempty"`
	Category           string          `json:"category"`
	Priority           *int            `json:"priority,omitempty"`
	Condition          json.RawMessage `json:"condition"`
	Action             json.RawMessage `json:"action,omitempty"`
	ApplicableEntities []string        `json:"applicableEntities,omitempty"`
	ApplicableLines    []string        `json:"applicableLines,omitempty"`
	ApplicableStates   []string        `json:"applicableStates,omitempty"`
	IsActive           *bool           `json:"isActive,omitempty"`
	Version            int             `json:"version,omitempty"`
	EffectiveFrom      *time.Time      `json:"effectiveFrom,omitempty"`
	EffectiveTo        *time.Time      `json:"effectiveTo,omitempty"`
}

const defaultRulePriority = 100

func (s *Server) handleUpsertRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	if len(req.Condition) == 0 {
		fields["condition"] = "condition is required"
	}
	if len(fields) > 0 {
		ValidationError(w, r, "invalid rule payload", fields)
		return
	}

	cond, err := rules.ParseCondition(req.Condition)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidCondition, err.Error())
		return
	}
	act, err := rules.ParseAction(req.Action)
	if err != nil {
		BadRequestError(w, r, ErrCodeValidation, err.Error())
		return
	}

	rule := rules.Rule{
		ID:                 req.ID,
		Name:               req.Name,
		Description:        req.Description,
		Category:           rules.Category(req.Category),
		Priority:           defaultRulePriority,
		Condition:          cond,
		Action:             act,
		ApplicableEntities: req.ApplicableEntities,
		ApplicableLines:    req.ApplicableLines,
		ApplicableStates:   req.ApplicableStates,
		IsActive:           true,
		Version:            req.Version,
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if rule.Version == 0 {
		rule.Version = 1
	}
	if req.EffectiveFrom != nil {
		rule.EffectiveFrom = *req.EffectiveFrom
	}
	rule.EffectiveTo = req.EffectiveTo

	if err := s.store.UpsertRule(r.Context(), rule); err != nil {
		if errors.Is(err, rules.ErrInvalidCategory) {
			BadRequestError(w, r, ErrCodeInvalidCategory, err.Error())
			return
		}
		if errors.Is(err, rules.ErrInvalidCondition) || errors.Is(err, rules.ErrUnknownOperator) ||
			errors.Is(err, rules.ErrInvalidDecision) {
			BadRequestError(w, r, ErrCodeValidation, err.Error())
			return
		}
		s.log.Error().Err(err).Str("rule_id", rule.ID).Msg("rule upsert failed")
		InternalError(w, r, "rule upsert failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": rule.ID})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.ListRules(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("rule list failed")
		InternalError(w, r, "rule list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": all})
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, err := s.store.GetRule(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRuleNotFound) {
			NotFoundError(w, r, "rule not found")
			return
		}
		s.log.Error().Err(err).Str("rule_id", id).Msg("rule fetch failed")
		InternalError(w, r, "rule fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteRule(r.Context(), id); err != nil {
		s.log.Error().Err(err).Str("rule_id", id).Msg("rule delete failed")
		InternalError(w, r, "rule delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

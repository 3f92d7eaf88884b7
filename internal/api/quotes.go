package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rating"
	"github.com/ozsure/quoting/internal/rules"
	"github.com/ozsure/quoting/internal/telemetry"
)

// Quote statuses derived from the underwriting verdict.
const (
	QuoteStatusRated    = "RATED"
	QuoteStatusReferred = "REFERRED"
	QuoteStatusDeclined = "DECLINED"
)

type rateQuoteRequest struct {
	LineOfBusiness string         `json:"lineOfBusiness"`
	State          string         `json:"state"`
	RiskData       map[string]any `json:"riskData"`
	QuoteID        string         `json:"quoteId,omitempty"`
	ActorID        string         `json:"actorId,omitempty"`
}

type rateQuoteResponse struct {
	QuoteID      string            `json:"quoteId"`
	Status       string            `json:"status"`
	Decision     rules.Decision    `json:"decision"`
	Breakdown    *rating.Breakdown `json:"breakdown"`
	Underwriting *engine.Execution `json:"underwriting"`
}

// handleRateQuote rates a risk and then runs the underwriting rules
// against it. The premium breakdown is always returned, even for
// referred or declined quotes, so a reviewer sees what the price would
// have been.
func (s *Server) handleRateQuote(w http.ResponseWriter, r *http.Request) {
	var req rateQuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.LineOfBusiness) == "" {
		BadRequestError(w, r, ErrCodeMissingField, "lineOfBusiness is required")
		return
	}
	if req.RiskData == nil {
		BadRequestError(w, r, ErrCodeMissingField, "riskData is required")
		return
	}

	line := rating.LineOfBusiness(req.LineOfBusiness)
	breakdown, err := s.calculator.Rate(r.Context(), rating.Input{
		LineOfBusiness: line,
		State:          req.State,
		RiskData:       req.RiskData,
	})
	if err != nil {
		if errors.Is(err, rating.ErrUnsupportedLine) {
			BadRequestError(w, r, ErrCodeUnsupportedLine, err.Error())
			return
		}
		s.log.Error().Err(err).Str("line", req.LineOfBusiness).Msg("rating failed")
		InternalError(w, r, "rating failed")
		return
	}

	quoteID := req.QuoteID
	if quoteID == "" {
		quoteID = uuid.NewString()
	}

	exec, err := s.executor.ExecuteRules(r.Context(), engine.Request{
		EntityType: "QUOTE",
		EntityID:   quoteID,
		Context:    underwritingContext(req, breakdown),
		Categories: []rules.Category{rules.CategoryUnderwriting},
		ActorID:    req.ActorID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("quote_id", quoteID).Msg("underwriting execution failed")
		InternalError(w, r, "underwriting execution failed")
		return
	}

	decision := engine.Decide(exec)
	status := QuoteStatusRated
	switch decision {
	case rules.DecisionDecline:
		status = QuoteStatusDeclined
	case rules.DecisionRefer:
		status = QuoteStatusReferred
	}

	telemetry.QuotesRated.WithLabelValues(req.LineOfBusiness, status).Inc()

	writeJSON(w, http.StatusOK, rateQuoteResponse{
		QuoteID:      quoteID,
		Status:       status,
		Decision:     decision,
		Breakdown:    breakdown,
		Underwriting: exec,
	})
}

// underwritingContext exposes the risk data plus the rated figures to the
// underwriting rules, so rules can gate on premium size as well as raw
// risk attributes.
func underwritingContext(req rateQuoteRequest, b *rating.Breakdown) map[string]any {
	ctx := make(map[string]any, len(req.RiskData)+4)
	for k, v := range req.RiskData {
		ctx[k] = v
	}
	ctx["lineOfBusiness"] = req.LineOfBusiness
	ctx["state"] = req.State
	ctx["premiumBeforeTax"], _ = b.PremiumBeforeTax.Float64()
	ctx["totalPayable"], _ = b.TotalPayable.Float64()
	return ctx
}

type tableRequest struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	LineOfBusiness string          `json:"lineOfBusiness"`
	Version        int             `json:"version,omitempty"`
	BaseRate       decimal.Decimal `json:"baseRate"`
	Factors        map[string]any  `json:"factors,omitempty"`
	IsActive       *bool           `json:"isActive,omitempty"`
	EffectiveFrom  *time.Time      `json:"effectiveFrom,omitempty"`
	EffectiveTo    *time.Time      `json:"effectiveTo,omitempty"`
}

func (s *Server) handleUpsertTable(w http.ResponseWriter, r *http.Request) {
	var req tableRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	line := rating.LineOfBusiness(req.LineOfBusiness)
	switch line {
	case rating.LineMotor, rating.LineHome, rating.LineCommercial:
	default:
		BadRequestError(w, r, ErrCodeUnsupportedLine, "lineOfBusiness must be MOTOR, HOME or COMMERCIAL")
		return
	}
	if req.BaseRate.IsNegative() || req.BaseRate.IsZero() {
		BadRequestError(w, r, ErrCodeValidation, "baseRate must be positive")
		return
	}

	table := rating.Table{
		ID:             req.ID,
		Name:           req.Name,
		LineOfBusiness: line,
		Version:        req.Version,
		BaseRate:       req.BaseRate,
		Factors:        req.Factors,
		IsActive:       true,
		EffectiveFrom:  time.Now(),
		EffectiveTo:    req.EffectiveTo,
	}
	if table.ID == "" {
		table.ID = uuid.NewString()
	}
	if table.Version == 0 {
		table.Version = 1
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}
	if req.EffectiveFrom != nil {
		table.EffectiveFrom = *req.EffectiveFrom
	}

	if err := s.store.UpsertTable(r.Context(), table); err != nil {
		s.log.Error().Err(err).Str("line", req.LineOfBusiness).Msg("rating table upsert failed")
		InternalError(w, r, "rating table upsert failed")
		return
	}
	s.calculator.Invalidate(line)

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": table.ID, "version": table.Version})
}

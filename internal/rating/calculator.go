package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ozsure/quoting/internal/engine"
	"github.com/ozsure/quoting/internal/rules"
)

// Default base rates used when no rating table is active for a line.
var defaultBaseRates = map[LineOfBusiness]decimal.Decimal{
	LineMotor:      decimal.NewFromFloat(0.05),
	LineHome:       decimal.NewFromFloat(0.02),
	LineCommercial: decimal.NewFromFloat(0.03),
}

// Fee schedule applied to the adjusted premium.
var (
	policyFee         = decimal.NewFromFloat(50.00)
	underwritingFeePct = decimal.NewFromFloat(0.05)
	brokerageFeePct    = decimal.NewFromFloat(0.10)
)

// RuleExecutor runs rating-category rules in test mode during premium
// calculation. Implemented by engine.Executor.
type RuleExecutor interface {
	ExecuteRules(ctx context.Context, req engine.Request) (*engine.Execution, error)
}

// Calculator rates risks for the supported lines of business. Resolved
// rating tables are cached for the lifetime of the instance; the cache is
// read-through and safe for concurrent use.
type Calculator struct {
	tables TableSource
	exec   RuleExecutor
	log    zerolog.Logger

	mu    sync.RWMutex
	cache map[LineOfBusiness]*Table
}

// NewCalculator creates a premium calculator. exec may be nil to rate
// without rating-rule adjustments.
func NewCalculator(tables TableSource, exec RuleExecutor, log zerolog.Logger) *Calculator {
	return &Calculator{
		tables: tables,
		exec:   exec,
		log:    log,
		cache:  make(map[LineOfBusiness]*Table),
	}
}

// Rate computes the full premium breakdown for one risk. The computation
// is deterministic given identical rating-table state and rule set, and
// all-or-nothing: an input error aborts the whole call, partial numbers
// are never returned.
func (c *Calculator) Rate(ctx context.Context, in Input) (*Breakdown, error) {
	base, err := c.basePremium(ctx, in)
	if err != nil {
		return nil, err
	}

	adjusted, err := c.applyRatingRules(ctx, base, in.RiskData)
	if err != nil {
		return nil, err
	}
	adjusted = adjusted.Round(2)

	fees := policyFee.
		Add(adjusted.Mul(underwritingFeePct)).
		Add(adjusted.Mul(brokerageFeePct)).
		Round(2)

	premiumBeforeTax := adjusted.Add(fees)
	taxes := ComputeTaxes(premiumBeforeTax, in.State, in.LineOfBusiness)

	total := premiumBeforeTax.
		Add(taxes.GST).
		Add(taxes.StampDuty).
		Add(taxes.ESL)

	return &Breakdown{
		BasePremium:      adjusted,
		Fees:             fees,
		PremiumBeforeTax: premiumBeforeTax,
		GST:              taxes.GST,
		StampDuty:        taxes.StampDuty,
		ESL:              taxes.ESL,
		TotalPayable:     total,
		GSTRate:          taxes.GSTRate,
		StampDutyRate:    taxes.StampDutyRate,
		ESLRate:          taxes.ESLRate,
	}, nil
}

func (c *Calculator) basePremium(ctx context.Context, in Input) (decimal.Decimal, error) {
	table, err := c.resolveTable(ctx, in.LineOfBusiness)
	if err != nil {
		return decimal.Zero, err
	}

	switch in.LineOfBusiness {
	case LineMotor:
		return motorPremium(table.BaseRate, in.RiskData), nil
	case LineHome:
		return homePremium(table.BaseRate, in.RiskData), nil
	case LineCommercial:
		return commercialPremium(table.BaseRate, in.RiskData), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnsupportedLine, in.LineOfBusiness)
	}
}

// resolveTable returns the cached table for the line, loading it from the
// source on first use. A missing table is not fatal: the hard-coded
// default base rate for the line applies with an empty factor set.
func (c *Calculator) resolveTable(ctx context.Context, line LineOfBusiness) (*Table, error) {
	if _, ok := defaultBaseRates[line]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLine, line)
	}

	c.mu.RLock()
	table, ok := c.cache[line]
	c.mu.RUnlock()
	if ok {
		return table, nil
	}

	table = c.loadTable(ctx, line)

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent loader may have won the race; both computed the same
	// value, keep the first one.
	if cached, ok := c.cache[line]; ok {
		return cached, nil
	}
	c.cache[line] = table
	return table, nil
}

// Invalidate drops the cached table for the line so the next Rate call
// reloads it from the source. Called after a table upsert.
func (c *Calculator) Invalidate(line LineOfBusiness) {
	c.mu.Lock()
	delete(c.cache, line)
	c.mu.Unlock()
}

func (c *Calculator) loadTable(ctx context.Context, line LineOfBusiness) *Table {
	if c.tables != nil {
		table, err := c.tables.ActiveTable(ctx, line)
		if err == nil {
			return table
		}
		if !errors.Is(err, ErrTableNotFound) {
			c.log.Warn().Err(err).Str("line", string(line)).
				Msg("rating table lookup failed, using default base rate")
		}
	}
	return &Table{
		LineOfBusiness: line,
		BaseRate:       defaultBaseRates[line],
		Factors:        map[string]any{},
	}
}

// applyRatingRules folds the adjustment sum of the RATING category into
// the base premium. Rules run in test mode: the rating pass persists
// nothing and needs no entity identity. The result never goes below zero.
func (c *Calculator) applyRatingRules(ctx context.Context, base decimal.Decimal, riskData map[string]any) (decimal.Decimal, error) {
	if c.exec == nil {
		return base, nil
	}

	exec, err := c.exec.ExecuteRules(ctx, engine.Request{
		EntityType: "QUOTE",
		Context:    riskData,
		Categories: []rules.Category{rules.CategoryRating},
		TestMode:   true,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("rating rules: %w", err)
	}

	adjusted := base
	for _, row := range exec.Rules {
		if row.Outcome == rules.OutcomeError {
			continue
		}
		adjusted = adjusted.Add(decimal.NewFromFloat(row.Adjustment))
	}
	if adjusted.IsNegative() {
		return decimal.Zero, nil
	}
	return adjusted, nil
}

func motorPremium(baseRate decimal.Decimal, risk map[string]any) decimal.Decimal {
	vehicleValue := numField(risk, "vehicleValue")

	rate := baseRate.
		Mul(ageFactor(numField(risk, "driverAge"))).
		Mul(claimsFactor(numField(risk, "driverClaimsHistory"))).
		Mul(licenseFactor(strField(risk, "driverLicenseType"))).
		Mul(vehicleValueFactor(vehicleValue))

	premium := decimal.NewFromFloat(vehicleValue).Mul(rate)
	return premium.Mul(excessAdjustment(numField(risk, "excess")))
}

func homePremium(baseRate decimal.Decimal, risk map[string]any) decimal.Decimal {
	rate := baseRate.
		Mul(propertyTypeFactor(strField(risk, "propertyType"))).
		Mul(constructionFactor(strField(risk, "constructionType"))).
		Mul(propertyAgeFactor(numField(risk, "yearBuilt"), time.Now())).
		Mul(locationFactor(strField(risk, "location")))

	discount := securityDiscount(strSliceField(risk, "securityFeatures"))
	rate = rate.Mul(decimal.NewFromInt(1).Sub(discount))

	return decimal.NewFromFloat(numField(risk, "sumInsured")).Mul(rate)
}

func commercialPremium(baseRate decimal.Decimal, risk map[string]any) decimal.Decimal {
	rate := baseRate.
		Mul(businessTypeFactor(strField(risk, "businessType"))).
		Mul(turnoverFactor(numField(risk, "annualTurnover"))).
		Mul(employeeFactor(numField(risk, "employeeCount"))).
		Mul(locationFactor(strField(risk, "location")))

	return decimal.NewFromFloat(numField(risk, "sumInsured")).Mul(rate)
}

// numField reads a numeric risk-data field, tolerating the numeric types
// JSON decoding produces. Missing or non-numeric values read as zero.
func numField(risk map[string]any, key string) float64 {
	switch v := risk[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

func strField(risk map[string]any, key string) string {
	s, _ := risk[key].(string)
	return s
}

func strSliceField(risk map[string]any, key string) []string {
	switch v := risk[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

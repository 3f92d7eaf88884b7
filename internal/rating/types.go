// Package rating computes insurance premiums by combining tabular base
// rates, multiplicative risk factors, rule-driven adjustments and
// jurisdiction-specific taxes into an auditable monetary breakdown. All
// monetary arithmetic is exact decimal.
package rating

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LineOfBusiness is an insurance product category.
type LineOfBusiness string

const (
	LineMotor      LineOfBusiness = "MOTOR"
	LineHome       LineOfBusiness = "HOME"
	LineCommercial LineOfBusiness = "COMMERCIAL"
)

// Sentinel errors for rating inputs and table resolution.
var (
	ErrUnsupportedLine = errors.New("unsupported line of business")
	ErrTableNotFound   = errors.New("rating table not found")
)

// Table is a versioned rating table for one line of business. Factors is
// opaque to the rating core except where named entries are read by the
// line-specific formulas.
type Table struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	LineOfBusiness LineOfBusiness  `json:"lineOfBusiness"`
	Version        int             `json:"version"`
	BaseRate       decimal.Decimal `json:"baseRate"`
	Factors        map[string]any  `json:"factors,omitempty"`
	IsActive       bool            `json:"isActive"`
	EffectiveFrom  time.Time       `json:"effectiveFrom"`
	EffectiveTo    *time.Time      `json:"effectiveTo,omitempty"`
}

// IsEffective reports whether the table is active and within its
// activation window at the given instant.
func (t Table) IsEffective(at time.Time) bool {
	if !t.IsActive {
		return false
	}
	if at.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && at.After(*t.EffectiveTo) {
		return false
	}
	return true
}

// TableSource supplies the highest-version active rating table per line of
// business. Implemented by the store layer.
type TableSource interface {
	ActiveTable(ctx context.Context, line LineOfBusiness) (*Table, error)
}

// Input is one rating request.
type Input struct {
	LineOfBusiness LineOfBusiness `json:"lineOfBusiness"`
	State          string         `json:"state"`
	RiskData       map[string]any `json:"riskData"`
}

// Breakdown is the full monetary decomposition of a rated premium. The
// rates actually applied travel with the amounts for auditability.
// Invariants: PremiumBeforeTax = BasePremium + Fees, and TotalPayable =
// PremiumBeforeTax + GST + StampDuty + ESL, on the rounded values.
type Breakdown struct {
	BasePremium      decimal.Decimal `json:"basePremiumExTax"`
	Fees             decimal.Decimal `json:"feesExTax"`
	PremiumBeforeTax decimal.Decimal `json:"premiumBeforeTax"`
	GST              decimal.Decimal `json:"gst"`
	StampDuty        decimal.Decimal `json:"stampDuty"`
	ESL              decimal.Decimal `json:"esl"`
	TotalPayable     decimal.Decimal `json:"totalPayable"`
	GSTRate          decimal.Decimal `json:"gstRate"`
	StampDutyRate    decimal.Decimal `json:"stampDutyRate"`
	ESLRate          decimal.Decimal `json:"eslRate"`
}

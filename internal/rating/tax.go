package rating

import "github.com/shopspring/decimal"

// Taxes is the tax decomposition of a pre-tax premium amount.
type Taxes struct {
	GST           decimal.Decimal `json:"gst"`
	StampDuty     decimal.Decimal `json:"stampDuty"`
	ESL           decimal.Decimal `json:"esl"`
	GSTRate       decimal.Decimal `json:"gstRate"`
	StampDutyRate decimal.Decimal `json:"stampDutyRate"`
	ESLRate       decimal.Decimal `json:"eslRate"`
}

// GSTRate is the fixed goods-and-services tax rate on premiums.
var GSTRate = decimal.NewFromFloat(0.10)

// Stamp duty rates keyed by "STATE-LINE". Pairs not listed fall back to
// defaultStampDutyRate. In production these would come from a revenue
// office feed; the table is an immutable preload for the engine's
// lifetime.
var stampDutyRates = map[string]decimal.Decimal{
	"NSW-MOTOR":      decimal.NewFromFloat(0.05),
	"NSW-HOME":       decimal.NewFromFloat(0.04),
	"NSW-COMMERCIAL": decimal.NewFromFloat(0.06),
	"VIC-MOTOR":      decimal.NewFromFloat(0.05),
	"VIC-HOME":       decimal.NewFromFloat(0.04),
	"VIC-COMMERCIAL": decimal.NewFromFloat(0.06),
	"QLD-MOTOR":      decimal.NewFromFloat(0.05),
	"QLD-HOME":       decimal.NewFromFloat(0.04),
	"QLD-COMMERCIAL": decimal.NewFromFloat(0.06),
}

var defaultStampDutyRate = decimal.NewFromFloat(0.05)

// Emergency services levy rates by line of business. NSW only; every
// other jurisdiction pays no levy at all.
var eslRates = map[LineOfBusiness]decimal.Decimal{
	LineMotor:      decimal.NewFromFloat(0.005),
	LineHome:       decimal.NewFromFloat(0.003),
	LineCommercial: decimal.NewFromFloat(0.004),
}

var defaultESLRate = decimal.NewFromFloat(0.005)

// StampDutyRate returns the stamp duty rate for a state and line pair.
func StampDutyRate(state string, line LineOfBusiness) decimal.Decimal {
	if rate, ok := stampDutyRates[state+"-"+string(line)]; ok {
		return rate
	}
	return defaultStampDutyRate
}

// ESLRate returns the emergency services levy rate for NSW risk; zero for
// any other jurisdiction.
func ESLRate(state string, line LineOfBusiness) decimal.Decimal {
	if state != "NSW" {
		return decimal.Zero
	}
	if rate, ok := eslRates[line]; ok {
		return rate
	}
	return defaultESLRate
}

// ComputeTaxes computes GST, stamp duty and (NSW-only) ESL on the pre-tax
// premium. Each component is rounded to the cent independently, half away
// from zero, before any summation: round-then-sum is load-bearing for
// regulatory reproduction of totals.
func ComputeTaxes(premiumBeforeTax decimal.Decimal, state string, line LineOfBusiness) Taxes {
	stampRate := StampDutyRate(state, line)
	eslRate := ESLRate(state, line)

	return Taxes{
		GST:           premiumBeforeTax.Mul(GSTRate).Round(2),
		StampDuty:     premiumBeforeTax.Mul(stampRate).Round(2),
		ESL:           premiumBeforeTax.Mul(eslRate).Round(2),
		GSTRate:       GSTRate,
		StampDutyRate: stampRate,
		ESLRate:       eslRate,
	}
}

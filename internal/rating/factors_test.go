package rating

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func assertFactor(t *testing.T, got decimal.Decimal, want float64, label string) {
	t.Helper()
	if !got.Equal(decimal.NewFromFloat(want)) {
		t.Errorf("%s = %s, want %v", label, got, want)
	}
}

func TestAgeFactor(t *testing.T) {
	tests := []struct {
		age  float64
		want float64
	}{
		{18, 1.5}, {24.9, 1.5},
		{25, 1.3}, {29, 1.3},
		{30, 1.0}, {49, 1.0},
		{50, 1.1}, {64, 1.1},
		{65, 1.2}, {80, 1.2},
	}
	for _, tt := range tests {
		assertFactor(t, ageFactor(tt.age), tt.want, "ageFactor")
	}
}

func TestClaimsFactor(t *testing.T) {
	tests := []struct {
		claims float64
		want   float64
	}{
		{0, 0.8}, {1, 1.0}, {2, 1.3}, {3, 1.8}, {7, 1.8},
	}
	for _, tt := range tests {
		assertFactor(t, claimsFactor(tt.claims), tt.want, "claimsFactor")
	}
}

func TestLicenseFactor(t *testing.T) {
	assertFactor(t, licenseFactor("LEARNER"), 1.5, "LEARNER")
	assertFactor(t, licenseFactor("PROVISIONAL"), 1.3, "PROVISIONAL")
	assertFactor(t, licenseFactor("FULL"), 1.0, "FULL")
	// Unknown license types fall back to neutral.
	assertFactor(t, licenseFactor("INTERNATIONAL"), 1.0, "unknown")
}

func TestVehicleValueFactor(t *testing.T) {
	tests := []struct {
		value float64
		want  float64
	}{
		{5000, 1.2}, {9999, 1.2},
		{10000, 1.0}, {24999, 1.0},
		{25000, 0.9}, {49999, 0.9},
		{50000, 0.8}, {120000, 0.8},
	}
	for _, tt := range tests {
		assertFactor(t, vehicleValueFactor(tt.value), tt.want, "vehicleValueFactor")
	}
}

func TestExcessAdjustment(t *testing.T) {
	tests := []struct {
		excess float64
		want   float64
	}{
		{0, 1.0}, {500, 1.0},
		{501, 0.9}, {1000, 0.9},
		{1001, 0.8}, {2000, 0.8},
		{2001, 0.7}, {5000, 0.7},
	}
	for _, tt := range tests {
		assertFactor(t, excessAdjustment(tt.excess), tt.want, "excessAdjustment")
	}
}

func TestPropertyFactors(t *testing.T) {
	assertFactor(t, propertyTypeFactor("HOUSE"), 1.0, "HOUSE")
	assertFactor(t, propertyTypeFactor("UNIT"), 0.9, "UNIT")
	assertFactor(t, propertyTypeFactor("TOWNHOUSE"), 1.1, "TOWNHOUSE")
	assertFactor(t, propertyTypeFactor("APARTMENT"), 0.8, "APARTMENT")
	assertFactor(t, propertyTypeFactor("CASTLE"), 1.0, "unknown")

	assertFactor(t, constructionFactor("BRICK"), 0.9, "BRICK")
	assertFactor(t, constructionFactor("TIMBER"), 1.1, "TIMBER")
	assertFactor(t, constructionFactor("STEEL"), 0.8, "STEEL")
	assertFactor(t, constructionFactor("CONCRETE"), 0.9, "CONCRETE")
	assertFactor(t, constructionFactor("STRAW"), 1.0, "unknown")
}

func TestPropertyAgeFactor(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		yearBuilt float64
		want      float64
	}{
		{2020, 1.0}, {2017, 1.0},
		{2016, 1.1}, {2007, 1.1},
		{2006, 1.2}, {1997, 1.2},
		{1996, 1.3}, {1950, 1.3},
	}
	for _, tt := range tests {
		assertFactor(t, propertyAgeFactor(tt.yearBuilt, now), tt.want, "propertyAgeFactor")
	}
}

func TestSecurityDiscount(t *testing.T) {
	assertFactor(t, securityDiscount(nil), 0, "no features")
	assertFactor(t, securityDiscount([]string{"ALARM"}), 0.05, "alarm")
	assertFactor(t, securityDiscount([]string{"ALARM", "CCTV"}), 0.08, "alarm+cctv")
	// All three sum to 0.16, which the cap pulls back to 0.15.
	assertFactor(t, securityDiscount([]string{"ALARM", "CCTV", "SECURITY_GUARD"}), 0.15, "capped")
	// Unknown features contribute nothing.
	assertFactor(t, securityDiscount([]string{"MOAT", "ALARM"}), 0.05, "unknown feature")
}

func TestCommercialFactors(t *testing.T) {
	assertFactor(t, businessTypeFactor("RETAIL"), 1.0, "RETAIL")
	assertFactor(t, businessTypeFactor("OFFICE"), 0.8, "OFFICE")
	assertFactor(t, businessTypeFactor("MANUFACTURING"), 1.3, "MANUFACTURING")
	assertFactor(t, businessTypeFactor("WAREHOUSE"), 1.1, "WAREHOUSE")
	assertFactor(t, businessTypeFactor("RESTAURANT"), 1.2, "RESTAURANT")
	assertFactor(t, businessTypeFactor("MINING"), 1.0, "unknown")

	assertFactor(t, turnoverFactor(50000), 0.8, "turnover<100k")
	assertFactor(t, turnoverFactor(100000), 1.0, "turnover=100k")
	assertFactor(t, turnoverFactor(499999), 1.0, "turnover<500k")
	assertFactor(t, turnoverFactor(500000), 1.2, "turnover=500k")
	assertFactor(t, turnoverFactor(2000000), 1.5, "turnover=2m")

	assertFactor(t, employeeFactor(4), 0.8, "employees<5")
	assertFactor(t, employeeFactor(5), 1.0, "employees=5")
	assertFactor(t, employeeFactor(20), 1.2, "employees=20")
	assertFactor(t, employeeFactor(50), 1.5, "employees=50")
}

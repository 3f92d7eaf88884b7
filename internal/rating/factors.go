package rating

import (
	"time"

	"github.com/shopspring/decimal"
)

// Factor tables below carry the regulatory-approved bracket boundaries as
// literal thresholds. They are not configurable.

func ageFactor(age float64) decimal.Decimal {
	switch {
	case age < 25:
		return decimal.NewFromFloat(1.5)
	case age < 30:
		return decimal.NewFromFloat(1.3)
	case age < 50:
		return decimal.NewFromFloat(1.0)
	case age < 65:
		return decimal.NewFromFloat(1.1)
	default:
		return decimal.NewFromFloat(1.2)
	}
}

func claimsFactor(claims float64) decimal.Decimal {
	switch claims {
	case 0:
		return decimal.NewFromFloat(0.8)
	case 1:
		return decimal.NewFromFloat(1.0)
	case 2:
		return decimal.NewFromFloat(1.3)
	default:
		return decimal.NewFromFloat(1.8)
	}
}

var licenseFactors = map[string]decimal.Decimal{
	"LEARNER":     decimal.NewFromFloat(1.5),
	"PROVISIONAL": decimal.NewFromFloat(1.3),
	"FULL":        decimal.NewFromFloat(1.0),
}

func licenseFactor(licenseType string) decimal.Decimal {
	if f, ok := licenseFactors[licenseType]; ok {
		return f
	}
	return decimal.NewFromFloat(1.0)
}

func vehicleValueFactor(value float64) decimal.Decimal {
	switch {
	case value < 10000:
		return decimal.NewFromFloat(1.2)
	case value < 25000:
		return decimal.NewFromFloat(1.0)
	case value < 50000:
		return decimal.NewFromFloat(0.9)
	default:
		return decimal.NewFromFloat(0.8)
	}
}

func excessAdjustment(excess float64) decimal.Decimal {
	switch {
	case excess <= 500:
		return decimal.NewFromFloat(1.0)
	case excess <= 1000:
		return decimal.NewFromFloat(0.9)
	case excess <= 2000:
		return decimal.NewFromFloat(0.8)
	default:
		return decimal.NewFromFloat(0.7)
	}
}

var propertyTypeFactors = map[string]decimal.Decimal{
	"HOUSE":     decimal.NewFromFloat(1.0),
	"UNIT":      decimal.NewFromFloat(0.9),
	"TOWNHOUSE": decimal.NewFromFloat(1.1),
	"APARTMENT": decimal.NewFromFloat(0.8),
}

func propertyTypeFactor(propertyType string) decimal.Decimal {
	if f, ok := propertyTypeFactors[propertyType]; ok {
		return f
	}
	return decimal.NewFromFloat(1.0)
}

var constructionFactors = map[string]decimal.Decimal{
	"BRICK":    decimal.NewFromFloat(0.9),
	"TIMBER":   decimal.NewFromFloat(1.1),
	"STEEL":    decimal.NewFromFloat(0.8),
	"CONCRETE": decimal.NewFromFloat(0.9),
}

func constructionFactor(constructionType string) decimal.Decimal {
	if f, ok := constructionFactors[constructionType]; ok {
		return f
	}
	return decimal.NewFromFloat(1.0)
}

func propertyAgeFactor(yearBuilt float64, now time.Time) decimal.Decimal {
	age := float64(now.Year()) - yearBuilt
	switch {
	case age < 10:
		return decimal.NewFromFloat(1.0)
	case age < 20:
		return decimal.NewFromFloat(1.1)
	case age < 30:
		return decimal.NewFromFloat(1.2)
	default:
		return decimal.NewFromFloat(1.3)
	}
}

// locationFactor is a constant placeholder pending a geocoding
// integration.
func locationFactor(_ string) decimal.Decimal {
	return decimal.NewFromFloat(1.0)
}

var securityDiscounts = map[string]decimal.Decimal{
	"ALARM":          decimal.NewFromFloat(0.05),
	"CCTV":           decimal.NewFromFloat(0.03),
	"SECURITY_GUARD": decimal.NewFromFloat(0.08),
}

var maxSecurityDiscount = decimal.NewFromFloat(0.15)

// securityDiscount sums the per-feature discounts, capped at 15% total.
func securityDiscount(features []string) decimal.Decimal {
	discount := decimal.Zero
	for _, feature := range features {
		if d, ok := securityDiscounts[feature]; ok {
			discount = discount.Add(d)
		}
	}
	if discount.GreaterThan(maxSecurityDiscount) {
		return maxSecurityDiscount
	}
	return discount
}

var businessTypeFactors = map[string]decimal.Decimal{
	"RETAIL":        decimal.NewFromFloat(1.0),
	"OFFICE":        decimal.NewFromFloat(0.8),
	"MANUFACTURING": decimal.NewFromFloat(1.3),
	"WAREHOUSE":     decimal.NewFromFloat(1.1),
	"RESTAURANT":    decimal.NewFromFloat(1.2),
}

func businessTypeFactor(businessType string) decimal.Decimal {
	if f, ok := businessTypeFactors[businessType]; ok {
		return f
	}
	return decimal.NewFromFloat(1.0)
}

func turnoverFactor(turnover float64) decimal.Decimal {
	switch {
	case turnover < 100000:
		return decimal.NewFromFloat(0.8)
	case turnover < 500000:
		return decimal.NewFromFloat(1.0)
	case turnover < 2000000:
		return decimal.NewFromFloat(1.2)
	default:
		return decimal.NewFromFloat(1.5)
	}
}

func employeeFactor(count float64) decimal.Decimal {
	switch {
	case count < 5:
		return decimal.NewFromFloat(0.8)
	case count < 20:
		return decimal.NewFromFloat(1.0)
	case count < 50:
		return decimal.NewFromFloat(1.2)
	default:
		return decimal.NewFromFloat(1.5)
	}
}

// Package yields derives curve analytics from a day's treasury rate ladder.
package yields

import (
	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/util"
)

// Derive fills the computed fields of y in place and returns it. A field
// stays nil whenever one of its inputs is missing from the ladder.
func Derive(y *models.TreasuryYield) *models.TreasuryYield {
	if y == nil {
		return nil
	}

	if y.Year10 != nil && y.Year2 != nil {
		slope := util.Round2(*y.Year10 - *y.Year2)
		y.YieldCurveSlope = &slope
	}
	if y.Year30 != nil && y.Year10 != nil {
		spread := util.Round2(*y.Year30 - *y.Year10)
		y.TermSpread = &spread
	}
	if y.Year10 != nil {
		// Rough corporate premium estimate off the 10 year rate.
		proxy := util.Round2(*y.Year10 * 0.15)
		y.CreditSpreadProxy = &proxy
	}
	return y
}

// Inverted reports whether the curve slope is known and negative.
func Inverted(y *models.TreasuryYield) bool {
	return y != nil && y.YieldCurveSlope != nil && *y.YieldCurveSlope < 0
}

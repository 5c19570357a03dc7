package models

import "time"

// TreasuryYield is one day's treasury rate ladder plus derived curve
// analytics. Keyed by Date; recompute overwrites.
type TreasuryYield struct {
	Date time.Time

	Month1 *float64
	Month2 *float64
	Month3 *float64
	Month6 *float64
	Year1  *float64
	Year2  *float64
	Year3  *float64
	Year5  *float64
	Year7  *float64
	Year10 *float64
	Year20 *float64
	Year30 *float64

	YieldCurveSlope   *float64 // 10y - 2y
	TermSpread        *float64 // 30y - 10y
	CreditSpreadProxy *float64 // 10y * 0.15 approximation
}

// Package enrich derives the per-row analytics columns stored alongside each
// raw bar: change versus the previous bar, average price, intrabar range
// volatility, volume relative to a trailing baseline, and a 0-100 quality
// score.
package enrich

import (
	"sort"

	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/util"
)

// volatileRangePct is the intrabar range, as a percentage of close, above
// which a row is considered excessively volatile for scoring purposes.
const volatileRangePct = 20.0

// Enrich computes derived metrics for one symbol's bars, ordered by time.
// baselineVolume is the symbol's trailing 30-day mean volume; pass 0 when no
// baseline exists and RelativeVolume stays nil. The first row of the series
// has no previous close, so its change fields stay nil.
func Enrich(bars []models.Bar, baselineVolume float64) []models.EnrichedBar {
	if len(bars) == 0 {
		return nil
	}

	sorted := make([]models.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make([]models.EnrichedBar, 0, len(sorted))
	for i, b := range sorted {
		row := models.EnrichedBar{
			Bar:      b,
			AvgPrice: util.Round4((b.High + b.Low + b.Close) / 3),
		}

		if i > 0 {
			prevClose := sorted[i-1].Close
			if prevClose != 0 {
				change := util.Round4(b.Close - prevClose)
				pct := util.Round2(change / prevClose * 100)
				row.PriceChange = &change
				row.PriceChangePct = &pct
			}
		}

		if b.Close > 0 {
			vol := util.Round2((b.High - b.Low) / b.Close * 100)
			row.Volatility = &vol
		}

		if baselineVolume > 0 {
			rel := util.Round2(float64(b.Volume) / baselineVolume)
			row.RelativeVolume = &rel
		}

		row.QualityScore = qualityScore(b, row.Volatility)
		out = append(out, row)
	}
	return out
}

// qualityScore grades a single bar from 100 down. OHLC ordering violations
// cost 30, non-positive volume 20, an excessively volatile range 10, and an
// intrabar range wider than 10% of close another 10.
func qualityScore(b models.Bar, volatility *float64) int {
	score := 100

	lo, hi := min2(b.Open, b.Close), max2(b.Open, b.Close)
	if !(b.Low <= lo && hi <= b.High) {
		score -= 30
	}
	if b.Volume <= 0 {
		score -= 20
	}
	if volatility != nil && *volatility > volatileRangePct {
		score -= 10
	}
	if b.Close > 0 && (b.High-b.Low)/b.Close > 0.10 {
		score -= 10
	}

	if score < 0 {
		return 0
	}
	return score
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

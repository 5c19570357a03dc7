package breadth

import (
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/util"
)

// Summarize folds one calendar date's per-symbol rows into a market-breadth
// summary. A day with no rows produces nil (no zero-filled summary row); a
// day where every row has zero volume still produces a summary, with VWAP
// nil. Rows with a nil price change count as unchanged.
func Summarize(date time.Time, rows []models.DailyRow) *models.DailySummary {
	if len(rows) == 0 {
		return nil
	}

	s := &models.DailySummary{
		Date:             util.SessionDate(date),
		TotalInstruments: len(rows),
	}

	var weighted float64
	for _, r := range rows {
		switch {
		case r.PriceChange != nil && *r.PriceChange > 0:
			s.AdvancingCount++
			s.UpVolume += r.Volume
		case r.PriceChange != nil && *r.PriceChange < 0:
			s.DecliningCount++
			s.DownVolume += r.Volume
		default:
			s.UnchangedCount++
		}
		s.TotalVolume += r.Volume
		weighted += r.AvgPrice * float64(r.Volume)
	}

	s.AvgVolume = s.TotalVolume / int64(len(rows))
	s.BreadthPct = util.Round2(float64(s.AdvancingCount-s.DecliningCount) / float64(len(rows)) * 100)

	if s.DecliningCount > 0 {
		ratio := util.Round2(float64(s.AdvancingCount) / float64(s.DecliningCount))
		s.AdvanceDeclineRatio = &ratio
	}
	if s.TotalVolume > 0 {
		vwap := util.Round4(weighted / float64(s.TotalVolume))
		s.VWAP = &vwap
	}
	return s
}

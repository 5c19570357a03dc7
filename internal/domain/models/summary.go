package models

import "time"

// DailySummary is the market-breadth rollup for one calendar date across the
// stock universe. Keyed by Date; recomputation overwrites in place.
type DailySummary struct {
	Date             time.Time
	TotalInstruments int
	AdvancingCount   int
	DecliningCount   int
	UnchangedCount   int

	TotalVolume int64
	AvgVolume   int64
	UpVolume    int64
	DownVolume  int64

	BreadthPct          float64  // (advancing - declining) / total * 100, 2dp
	AdvanceDeclineRatio *float64 // advancing / declining, nil when declining == 0
	VWAP                *float64 // sum(avgPrice*vol)/sum(vol), nil when total volume == 0
}

// DailyRow is the per-symbol input to the daily rollup: one symbol's derived
// metrics for the date being summarized.
type DailyRow struct {
	Symbol      string
	PriceChange *float64
	Volume      int64
	AvgPrice    float64
}

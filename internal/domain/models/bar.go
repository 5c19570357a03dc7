package models

import "time"

// AssetClass distinguishes the instrument universes the pipeline tracks.
type AssetClass string

const (
	AssetStock     AssetClass = "stock"
	AssetIndex     AssetClass = "index"
	AssetCommodity AssetClass = "commodity"
)

// Bar is one OHLCV record as loaded from the upstream API.
// Invariant: Low <= min(Open, Close) <= max(Open, Close) <= High, Volume >= 0.
type Bar struct {
	Symbol    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Candle is an aggregated bucket built from finer-grained bars.
// SourceBarCount records how many raw bars produced it (1 for a session-open
// singleton, 3 for a complete triple) and is kept for completeness auditing.
type Candle struct {
	Symbol         string
	Timestamp      time.Time
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Volume         int64
	SourceBarCount int
}

// EnrichedBar is a warehouse analytics row: the raw bar plus per-row derived
// metrics. Pointer fields are null until computable (first row of a series has
// no previous close).
type EnrichedBar struct {
	Bar
	PriceChange    *float64
	PriceChangePct *float64
	AvgPrice       float64
	Volatility     *float64 // high-low range as % of close
	RelativeVolume *float64 // volume / trailing 30-day mean volume
	QualityScore   int
}

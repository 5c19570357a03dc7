package models

import "time"

// IndicatorRow holds the rolling technical indicators for one (symbol, ts).
// Every pointer field is nil until its lookback window is satisfied; a nil is
// persisted as SQL NULL, never as zero.
type IndicatorRow struct {
	Symbol    string
	Timestamp time.Time

	SMA20  *float64
	SMA50  *float64
	SMA200 *float64
	EMA12  *float64
	EMA26  *float64

	MACD          *float64
	MACDSignal    *float64
	MACDHistogram *float64

	RSI14 *float64

	BBUpper  *float64
	BBMiddle *float64
	BBLower  *float64

	VolumeSMA20 *float64
	VolumeRatio *float64

	PriceChange1  *float64
	PriceChange5  *float64
	PriceChange20 *float64
	Volatility20  *float64
}

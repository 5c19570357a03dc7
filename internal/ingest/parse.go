// Package ingest turns upstream API payloads into domain records. The API
// is loose with types (numbers arrive as strings, fields go missing), so
// decoding is tolerant per row: a bad row is dropped and counted, never
// failing the batch around it.
package ingest

import (
	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/util"
)

// RawBar mirrors one item of the intraday chart response. Numeric fields
// decode as interface{} so string-typed numbers survive to the coercion step.
type RawBar struct {
	Date   string      `json:"date"`
	Open   interface{} `json:"open"`
	High   interface{} `json:"high"`
	Low    interface{} `json:"low"`
	Close  interface{} `json:"close"`
	Volume interface{} `json:"volume"`
}

// RawTreasury mirrors one item of the treasury rates response.
type RawTreasury struct {
	Date   string      `json:"date"`
	Month1 interface{} `json:"month1"`
	Month2 interface{} `json:"month2"`
	Month3 interface{} `json:"month3"`
	Month6 interface{} `json:"month6"`
	Year1  interface{} `json:"year1"`
	Year2  interface{} `json:"year2"`
	Year3  interface{} `json:"year3"`
	Year5  interface{} `json:"year5"`
	Year7  interface{} `json:"year7"`
	Year10 interface{} `json:"year10"`
	Year20 interface{} `json:"year20"`
	Year30 interface{} `json:"year30"`
}

// ParseBars converts raw rows for one symbol, returning the usable bars and
// the count of rows dropped for missing fields, unparsable values, or a
// broken OHLC ordering.
func ParseBars(symbol string, raw []RawBar) ([]models.Bar, int) {
	bars := make([]models.Bar, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		b, ok := parseBar(symbol, r)
		if !ok {
			dropped++
			continue
		}
		bars = append(bars, b)
	}
	return bars, dropped
}

func parseBar(symbol string, r RawBar) (models.Bar, bool) {
	ts, ok := util.ParseTime(r.Date)
	if !ok {
		return models.Bar{}, false
	}

	open, ok := util.SafeFloat(r.Open)
	if !ok {
		return models.Bar{}, false
	}
	high, ok := util.SafeFloat(r.High)
	if !ok {
		return models.Bar{}, false
	}
	low, ok := util.SafeFloat(r.Low)
	if !ok {
		return models.Bar{}, false
	}
	closeP, ok := util.SafeFloat(r.Close)
	if !ok {
		return models.Bar{}, false
	}
	volume, ok := util.SafeInt(r.Volume)
	if !ok {
		return models.Bar{}, false
	}

	if high < max3(open, closeP, low) || low > min3(open, closeP, high) {
		return models.Bar{}, false
	}
	if volume < 0 {
		return models.Bar{}, false
	}

	return models.Bar{
		Symbol:    symbol,
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		Volume:    volume,
	}, true
}

// ParseTreasury converts one treasury rates row. Individual missing tenors
// stay nil; only an unparsable date drops the row.
func ParseTreasury(r RawTreasury) (*models.TreasuryYield, bool) {
	ts, ok := util.ParseTime(r.Date)
	if !ok {
		return nil, false
	}
	return &models.TreasuryYield{
		Date:   util.SessionDate(ts),
		Month1: floatPtr(r.Month1),
		Month2: floatPtr(r.Month2),
		Month3: floatPtr(r.Month3),
		Month6: floatPtr(r.Month6),
		Year1:  floatPtr(r.Year1),
		Year2:  floatPtr(r.Year2),
		Year3:  floatPtr(r.Year3),
		Year5:  floatPtr(r.Year5),
		Year7:  floatPtr(r.Year7),
		Year10: floatPtr(r.Year10),
		Year20: floatPtr(r.Year20),
		Year30: floatPtr(r.Year30),
	}, true
}

func floatPtr(v interface{}) *float64 {
	f, ok := util.SafeFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

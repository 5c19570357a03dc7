package indicators

import (
	"math"
	"sort"

	"MarketPulse/internal/domain/models"
)

// MinRows is the minimum usable series length; shorter series produce no
// indicator rows at all and are reported as skipped by the caller.
const MinRows = 20

// window sizes follow the warehouse schema, not the caller.
const (
	smaShort  = 20
	smaMid    = 50
	smaLong   = 200
	emaFast   = 12
	emaSlow   = 26
	emaSignal = 9
	rsiPeriod = 14
	bbPeriod  = 20
	bbWidth   = 2.0
	volPeriod = 20
)

// Compute derives the full indicator set for one symbol's chronologically
// sorted OHLCV series, one row per input bar. Fields stay nil until their
// lookback window is satisfied; degenerate arithmetic resolves to the
// documented sentinel (RSI 100 on zero average loss, nil ratios) rather than
// NaN or Inf.
//
// Recomputing over the same series yields identical rows keyed by
// (symbol, timestamp), so the warehouse upsert makes the whole pass
// idempotent. A series shorter than MinRows returns nil.
func Compute(bars []models.Bar) []models.IndicatorRow {
	if len(bars) < MinRows {
		return nil
	}

	bars = append([]models.Bar(nil), bars...)
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	ema12 := emaSeries(closes, emaFast)
	ema26 := emaSeries(closes, emaSlow)
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = ema12[i] - ema26[i]
	}
	signal := emaSeries(macd, emaSignal)

	change1 := pctChange(closes, 1)

	rows := make([]models.IndicatorRow, n)
	for i, b := range bars {
		row := models.IndicatorRow{Symbol: b.Symbol, Timestamp: b.Timestamp}

		row.SMA20 = trailingMean(closes, i, smaShort)
		row.SMA50 = trailingMean(closes, i, smaMid)
		row.SMA200 = trailingMean(closes, i, smaLong)

		e12, e26, m := ema12[i], ema26[i], macd[i]
		row.EMA12 = &e12
		row.EMA26 = &e26
		row.MACD = &m
		sig := signal[i]
		hist := m - sig
		row.MACDSignal = &sig
		row.MACDHistogram = &hist

		row.RSI14 = rsi(closes, i, rsiPeriod)

		row.BBMiddle = trailingMean(closes, i, bbPeriod)
		if sd := trailingStddev(closes, i, bbPeriod); sd != nil && row.BBMiddle != nil {
			up := *row.BBMiddle + bbWidth**sd
			lo := *row.BBMiddle - bbWidth**sd
			row.BBUpper = &up
			row.BBLower = &lo
		}

		row.VolumeSMA20 = trailingMean(volumes, i, smaShort)
		if row.VolumeSMA20 != nil && *row.VolumeSMA20 > 0 {
			r := volumes[i] / *row.VolumeSMA20
			row.VolumeRatio = &r
		}

		row.PriceChange1 = change1[i]
		row.PriceChange5 = pctChangeAt(closes, i, 5)
		row.PriceChange20 = pctChangeAt(closes, i, 20)
		row.Volatility20 = trailingStddevPtr(change1, i, volPeriod)

		rows[i] = row
	}
	return rows
}

// emaSeries computes the recursive EMA with span n, seeded from the first
// value. Defined for every index.
func emaSeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// trailingMean returns the mean of the window ending at i, or nil when fewer
// than n values precede it.
func trailingMean(values []float64, i, n int) *float64 {
	if i+1 < n {
		return nil
	}
	sum := 0.0
	for j := i + 1 - n; j <= i; j++ {
		sum += values[j]
	}
	m := sum / float64(n)
	return &m
}

// trailingStddev returns the sample standard deviation of the window ending
// at i, or nil when the window is incomplete.
func trailingStddev(values []float64, i, n int) *float64 {
	if i+1 < n || n < 2 {
		return nil
	}
	sum, sum2 := 0.0, 0.0
	for j := i + 1 - n; j <= i; j++ {
		sum += values[j]
		sum2 += values[j] * values[j]
	}
	nf := float64(n)
	mean := sum / nf
	variance := (sum2 - nf*mean*mean) / (nf - 1)
	if variance < 0 {
		variance = 0 // guard against FP cancellation
	}
	sd := math.Sqrt(variance)
	return &sd
}

// trailingStddevPtr is trailingStddev over a nullable series; the window must
// be fully defined.
func trailingStddevPtr(values []*float64, i, n int) *float64 {
	if i+1 < n || n < 2 {
		return nil
	}
	sum, sum2 := 0.0, 0.0
	for j := i + 1 - n; j <= i; j++ {
		if values[j] == nil {
			return nil
		}
		v := *values[j]
		sum += v
		sum2 += v * v
	}
	nf := float64(n)
	mean := sum / nf
	variance := (sum2 - nf*mean*mean) / (nf - 1)
	if variance < 0 {
		variance = 0
	}
	sd := math.Sqrt(variance)
	return &sd
}

// rsi computes RSI over the trailing period deltas ending at i. Zero average
// loss is defined as RSI 100; the division never escapes.
func rsi(closes []float64, i, period int) *float64 {
	if i < period {
		return nil
	}
	gain, loss := 0.0, 0.0
	for j := i - period + 1; j <= i; j++ {
		d := closes[j] - closes[j-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	var v float64
	if avgLoss == 0 {
		v = 100
	} else {
		rs := avgGain / avgLoss
		v = 100 - 100/(1+rs)
	}
	return &v
}

// pctChange returns the full k=1 change series, row-aligned.
func pctChange(closes []float64, k int) []*float64 {
	out := make([]*float64, len(closes))
	for i := range closes {
		out[i] = pctChangeAt(closes, i, k)
	}
	return out
}

// pctChangeAt returns (close_i - close_{i-k}) / close_{i-k}, nil when there
// is no base row or the base close is zero.
func pctChangeAt(closes []float64, i, k int) *float64 {
	if i < k {
		return nil
	}
	base := closes[i-k]
	if base == 0 {
		return nil
	}
	v := (closes[i] - base) / base
	return &v
}

package indicators

import (
    "math"
    "testing"
    "time"

    "MarketPulse/internal/domain/models"
)

func series(closes []float64) []models.Bar {
    bars := make([]models.Bar, len(closes))
    ts := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
    for i, c := range closes {
        bars[i] = models.Bar{
            Symbol:    "AAPL",
            Timestamp: ts,
            Open:      c, High: c, Low: c, Close: c,
            Volume: 1000,
        }
        ts = ts.Add(15 * time.Minute)
    }
    return bars
}

func constSeries(v float64, n int) []models.Bar {
    closes := make([]float64, n)
    for i := range closes {
        closes[i] = v
    }
    return series(closes)
}

func almostEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeTooShort(t *testing.T) {
    if rows := Compute(constSeries(100, 19)); rows != nil {
        t.Fatalf("expected nil for short series, got %d rows", len(rows))
    }
}

func TestComputeRowAlignment(t *testing.T) {
    bars := constSeries(100, 60)
    rows := Compute(bars)
    if len(rows) != len(bars) {
        t.Fatalf("expected %d rows, got %d", len(bars), len(rows))
    }
    for i := range rows {
        if !rows[i].Timestamp.Equal(bars[i].Timestamp) {
            t.Fatalf("row %d not aligned to input", i)
        }
    }
}

func TestLeadingWindowsUndefined(t *testing.T) {
    rows := Compute(constSeries(100, 250))
    if rows[18].SMA20 != nil {
        t.Fatalf("SMA20 must be nil before 20 rows")
    }
    if rows[19].SMA20 == nil {
        t.Fatalf("SMA20 must be defined at row 20")
    }
    if rows[48].SMA50 != nil || rows[49].SMA50 == nil {
        t.Fatalf("SMA50 window boundary wrong")
    }
    if rows[198].SMA200 != nil || rows[199].SMA200 == nil {
        t.Fatalf("SMA200 window boundary wrong")
    }
    if rows[13].RSI14 != nil || rows[14].RSI14 == nil {
        t.Fatalf("RSI window boundary wrong")
    }
    if rows[19].Volatility20 != nil || rows[20].Volatility20 == nil {
        t.Fatalf("volatility needs 20 defined change values")
    }
}

func TestConstantSeriesConvergence(t *testing.T) {
    const v = 42.5
    rows := Compute(constSeries(v, 250))
    last := rows[len(rows)-1]

    for name, got := range map[string]*float64{
        "sma20": last.SMA20, "sma50": last.SMA50, "sma200": last.SMA200,
        "ema12": last.EMA12, "ema26": last.EMA26,
        "bb_upper": last.BBUpper, "bb_middle": last.BBMiddle, "bb_lower": last.BBLower,
    } {
        if got == nil || !almostEq(*got, v) {
            t.Fatalf("%s: expected %v, got %v", name, v, got)
        }
    }
    if last.MACD == nil || !almostEq(*last.MACD, 0) {
        t.Fatalf("MACD must be 0 on a constant series, got %v", last.MACD)
    }
    // Zero average loss: RSI is pinned at 100 by the documented rule.
    if last.RSI14 == nil || *last.RSI14 != 100 {
        t.Fatalf("RSI on constant series must be 100, got %v", last.RSI14)
    }
}

func TestRSIMonotonicIncrease(t *testing.T) {
    closes := make([]float64, 30)
    for i := range closes {
        closes[i] = 100 + float64(i)
    }
    rows := Compute(series(closes))
    for i, r := range rows {
        if r.RSI14 == nil {
            continue
        }
        if *r.RSI14 != 100 {
            t.Fatalf("row %d: strictly increasing closes must give RSI 100, got %v", i, *r.RSI14)
        }
    }
}

func TestRSIBounded(t *testing.T) {
    closes := []float64{
        100, 101, 99, 103, 98, 105, 97, 104, 96, 106,
        95, 107, 94, 108, 93, 109, 92, 110, 91, 111,
        90, 112, 89, 113, 88,
    }
    rows := Compute(series(closes))
    for i, r := range rows {
        if r.RSI14 == nil {
            continue
        }
        if *r.RSI14 < 0 || *r.RSI14 > 100 {
            t.Fatalf("row %d: RSI out of bounds: %v", i, *r.RSI14)
        }
    }
}

func TestSMAValue(t *testing.T) {
    closes := make([]float64, 25)
    for i := range closes {
        closes[i] = float64(i + 1) // 1..25
    }
    rows := Compute(series(closes))
    // SMA20 at the last row: mean of 6..25 = 15.5
    if rows[24].SMA20 == nil || !almostEq(*rows[24].SMA20, 15.5) {
        t.Fatalf("SMA20 wrong: %v", rows[24].SMA20)
    }
    // 1-period change at last row: (25-24)/24
    if rows[24].PriceChange1 == nil || !almostEq(*rows[24].PriceChange1, 1.0/24) {
        t.Fatalf("price change wrong: %v", rows[24].PriceChange1)
    }
}

func TestVolumeRatioZeroSMA(t *testing.T) {
    bars := constSeries(100, 30)
    for i := range bars {
        bars[i].Volume = 0
    }
    rows := Compute(bars)
    last := rows[len(rows)-1]
    if last.VolumeSMA20 == nil || *last.VolumeSMA20 != 0 {
        t.Fatalf("volume SMA should be 0, got %v", last.VolumeSMA20)
    }
    if last.VolumeRatio != nil {
        t.Fatalf("volume ratio must be nil when SMA is 0, got %v", *last.VolumeRatio)
    }
}

func TestComputeIdempotent(t *testing.T) {
    closes := make([]float64, 40)
    for i := range closes {
        closes[i] = 100 + math.Sin(float64(i))
    }
    bars := series(closes)
    a := Compute(bars)
    b := Compute(bars)
    for i := range a {
        if !indicatorRowsEqual(a[i], b[i]) {
            t.Fatalf("row %d differs between runs", i)
        }
    }
}

func indicatorRowsEqual(a, b models.IndicatorRow) bool {
    eq := func(x, y *float64) bool {
        if (x == nil) != (y == nil) {
            return false
        }
        return x == nil || *x == *y
    }
    return a.Symbol == b.Symbol && a.Timestamp.Equal(b.Timestamp) &&
        eq(a.SMA20, b.SMA20) && eq(a.SMA50, b.SMA50) && eq(a.SMA200, b.SMA200) &&
        eq(a.EMA12, b.EMA12) && eq(a.EMA26, b.EMA26) &&
        eq(a.MACD, b.MACD) && eq(a.MACDSignal, b.MACDSignal) && eq(a.MACDHistogram, b.MACDHistogram) &&
        eq(a.RSI14, b.RSI14) &&
        eq(a.BBUpper, b.BBUpper) && eq(a.BBMiddle, b.BBMiddle) && eq(a.BBLower, b.BBLower) &&
        eq(a.VolumeSMA20, b.VolumeSMA20) && eq(a.VolumeRatio, b.VolumeRatio) &&
        eq(a.PriceChange1, b.PriceChange1) && eq(a.PriceChange5, b.PriceChange5) &&
        eq(a.PriceChange20, b.PriceChange20) && eq(a.Volatility20, b.Volatility20)
}

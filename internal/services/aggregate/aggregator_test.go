package aggregate

import (
    "testing"
    "time"

    "MarketPulse/internal/domain/models"
)

func mkBar(sym string, h, m int, o, hi, lo, c float64, v int64) models.Bar {
    return models.Bar{
        Symbol:    sym,
        Timestamp: time.Date(2025, 3, 10, h, m, 0, 0, time.UTC),
        Open:      o, High: hi, Low: lo, Close: c, Volume: v,
    }
}

func fiveMinRun(sym string, startH, startM, n int) []models.Bar {
    bars := make([]models.Bar, 0, n)
    ts := time.Date(2025, 3, 10, startH, startM, 0, 0, time.UTC)
    for i := 0; i < n; i++ {
        bars = append(bars, models.Bar{
            Symbol:    sym,
            Timestamp: ts,
            Open:      100 + float64(i),
            High:      101 + float64(i),
            Low:       99 + float64(i),
            Close:     100.5 + float64(i),
            Volume:    1000,
        })
        ts = ts.Add(5 * time.Minute)
    }
    return bars
}

func TestAggregateOpenSingleton(t *testing.T) {
    bars := fiveMinRun("SPY", 9, 30, 1)
    res := Aggregate(DefaultConfig(), bars)
    if len(res.Candles) != 1 {
        t.Fatalf("expected 1 candle, got %d", len(res.Candles))
    }
    c := res.Candles[0]
    if c.SourceBarCount != 1 {
        t.Fatalf("expected singleton, got count %d", c.SourceBarCount)
    }
    if c.Open != bars[0].Open || c.Close != bars[0].Close || c.Volume != bars[0].Volume {
        t.Fatalf("singleton must copy the bar verbatim: %+v", c)
    }
}

func TestAggregateTriple(t *testing.T) {
    // 09:35, 09:40, 09:45 - contiguous, third on a 15-minute mark.
    bars := fiveMinRun("SPY", 9, 35, 3)
    res := Aggregate(DefaultConfig(), bars)
    if len(res.Candles) != 1 {
        t.Fatalf("expected 1 candle, got %d", len(res.Candles))
    }
    c := res.Candles[0]
    if c.SourceBarCount != 3 {
        t.Fatalf("expected triple, got count %d", c.SourceBarCount)
    }
    if !c.Timestamp.Equal(bars[2].Timestamp) {
        t.Fatalf("candle timestamp must be the third bar's: %v", c.Timestamp)
    }
    if c.Open != bars[0].Open || c.Close != bars[2].Close {
        t.Fatalf("open/close wrong: %+v", c)
    }
    if c.High != bars[2].High || c.Low != bars[0].Low {
        t.Fatalf("high/low wrong: %+v", c)
    }
    if c.Volume != 3000 {
        t.Fatalf("volume must sum the triple, got %d", c.Volume)
    }
}

func TestAggregateGapResync(t *testing.T) {
    // 09:30, 09:35, 09:40, 09:45, then a gap removing 09:50, then 09:55,
    // 10:00, 10:05. The last triple is contiguous but ends off the 15-minute
    // grid, so only the singleton and the 09:45 triple come out.
    bars := []models.Bar{
        mkBar("SPY", 9, 30, 1, 1, 1, 1, 10),
        mkBar("SPY", 9, 35, 2, 2, 2, 2, 10),
        mkBar("SPY", 9, 40, 3, 3, 3, 3, 10),
        mkBar("SPY", 9, 45, 4, 4, 4, 4, 10),
        mkBar("SPY", 9, 55, 5, 5, 5, 5, 10),
        mkBar("SPY", 10, 0, 6, 6, 6, 6, 10),
        mkBar("SPY", 10, 5, 7, 7, 7, 7, 10),
    }
    res := Aggregate(DefaultConfig(), bars)
    if len(res.Candles) != 2 {
        t.Fatalf("expected 2 candles, got %d: %+v", len(res.Candles), res.Candles)
    }
    if !res.Candles[0].Timestamp.Equal(bars[0].Timestamp) || res.Candles[0].SourceBarCount != 1 {
        t.Fatalf("first candle must be the 09:30 singleton: %+v", res.Candles[0])
    }
    if !res.Candles[1].Timestamp.Equal(bars[3].Timestamp) || res.Candles[1].SourceBarCount != 3 {
        t.Fatalf("second candle must be the 09:45 triple: %+v", res.Candles[1])
    }
}

func TestAggregateResyncToAlignedTriple(t *testing.T) {
    // 09:55 missing; after skipping 10:00 the (10:05,10:10,10:15) triple is
    // contiguous and ends on a 15-minute mark, so it is emitted.
    bars := []models.Bar{
        mkBar("SPY", 10, 0, 5, 5, 5, 5, 10),
        mkBar("SPY", 10, 5, 6, 6, 6, 6, 10),
        mkBar("SPY", 10, 10, 7, 7, 7, 7, 10),
        mkBar("SPY", 10, 15, 8, 8, 8, 8, 10),
    }
    res := Aggregate(DefaultConfig(), bars)
    if len(res.Candles) != 1 {
        t.Fatalf("expected 1 candle, got %d", len(res.Candles))
    }
    c := res.Candles[0]
    if c.Timestamp.Minute() != 15 || c.SourceBarCount != 3 || c.Open != 6 || c.Close != 8 {
        t.Fatalf("unexpected candle %+v", c)
    }
}

func TestAggregateTrailingLeftoversDiscarded(t *testing.T) {
    // 09:35..09:50: one triple plus one leftover bar that cannot complete.
    bars := fiveMinRun("SPY", 9, 35, 4)
    res := Aggregate(DefaultConfig(), bars)
    if len(res.Candles) != 1 {
        t.Fatalf("expected 1 candle, got %d", len(res.Candles))
    }
}

func TestAggregateDropsUntimedBars(t *testing.T) {
    bars := fiveMinRun("SPY", 9, 35, 3)
    bars = append(bars, models.Bar{Symbol: "SPY"}) // zero timestamp
    res := Aggregate(DefaultConfig(), bars)
    if res.Dropped != 1 {
        t.Fatalf("expected 1 dropped bar, got %d", res.Dropped)
    }
    if len(res.Candles) != 1 {
        t.Fatalf("expected aggregation to proceed, got %d candles", len(res.Candles))
    }
}

func TestAggregateEmptyInput(t *testing.T) {
    res := Aggregate(DefaultConfig(), nil)
    if len(res.Candles) != 0 || res.Dropped != 0 {
        t.Fatalf("empty input must yield empty result: %+v", res)
    }
}

func TestAggregateIdempotent(t *testing.T) {
    bars := append(fiveMinRun("SPY", 9, 30, 1), fiveMinRun("SPY", 9, 35, 6)...)
    first := Aggregate(DefaultConfig(), bars)
    second := Aggregate(DefaultConfig(), bars)
    if len(first.Candles) != len(second.Candles) {
        t.Fatalf("runs disagree: %d vs %d", len(first.Candles), len(second.Candles))
    }
    for i := range first.Candles {
        if first.Candles[i] != second.Candles[i] {
            t.Fatalf("candle %d differs: %+v vs %+v", i, first.Candles[i], second.Candles[i])
        }
    }
}

func TestAggregateCompletenessInvariant(t *testing.T) {
    bars := append(fiveMinRun("SPY", 9, 30, 1), fiveMinRun("SPY", 9, 35, 12)...)
    res := Aggregate(DefaultConfig(), bars)
    for _, c := range res.Candles {
        if c.SourceBarCount != 1 && c.SourceBarCount != 3 {
            t.Fatalf("source_bar_count out of range: %+v", c)
        }
        if c.High < c.Low || c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
            t.Fatalf("OHLC invariant violated: %+v", c)
        }
    }
}

func TestAggregateMultiSession(t *testing.T) {
    day1 := append(fiveMinRun("SPY", 9, 30, 1), fiveMinRun("SPY", 9, 35, 3)...)
    day2 := make([]models.Bar, 0, 4)
    for _, b := range day1 {
        b.Timestamp = b.Timestamp.AddDate(0, 0, 1)
        day2 = append(day2, b)
    }
    res := Aggregate(DefaultConfig(), append(day1, day2...))
    if len(res.Candles) != 4 {
        t.Fatalf("expected 2 candles per session, got %d", len(res.Candles))
    }
    for i := 1; i < len(res.Candles); i++ {
        if res.Candles[i].Timestamp.Before(res.Candles[i-1].Timestamp) {
            t.Fatalf("candles not sorted ascending")
        }
    }
}

func TestAggregateFixedMode(t *testing.T) {
    cfg := DefaultConfig()
    cfg.BucketWidth = 30 * time.Minute
    if cfg.ModeFor() != ModeFixed {
        t.Fatalf("non-default width must select fixed mode")
    }
    // Five bars spanning two half-hour buckets, one bucket incomplete.
    bars := fiveMinRun("GCUSD", 10, 0, 5) // 10:00..10:20
    bars = append(bars, mkBar("GCUSD", 10, 40, 9, 9, 9, 9, 5))
    res := Aggregate(cfg, bars)
    if len(res.Candles) != 2 {
        t.Fatalf("expected 2 buckets, got %d", len(res.Candles))
    }
    if res.Candles[0].SourceBarCount != 5 || res.Candles[1].SourceBarCount != 1 {
        t.Fatalf("unexpected bucket sizes: %+v", res.Candles)
    }
    if res.Candles[0].Timestamp.Minute() != 0 || res.Candles[1].Timestamp.Minute() != 30 {
        t.Fatalf("fixed buckets must use truncated timestamps: %+v", res.Candles)
    }
}

func TestFilterSessionCommodity(t *testing.T) {
    cfg := CommodityConfig()
    bars := []models.Bar{
        mkBar("GCUSD", 9, 15, 1, 1, 1, 1, 1),  // pre-open
        mkBar("GCUSD", 9, 30, 1, 1, 1, 1, 1),  // open
        mkBar("GCUSD", 15, 45, 1, 1, 1, 1, 1), // close
        mkBar("GCUSD", 16, 0, 1, 1, 1, 1, 1),  // after close
    }
    got := FilterSession(cfg, bars)
    if len(got) != 2 {
        t.Fatalf("expected 2 in-session bars, got %d", len(got))
    }
}

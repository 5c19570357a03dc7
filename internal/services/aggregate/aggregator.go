package aggregate

import (
	"sort"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/util"
)

// Mode selects the bucketing strategy.
type Mode int

const (
	// ModeSession is the canonical rule: one verbatim candle for the bar on
	// the session open, then triples of contiguous sub-interval bars whose
	// last bar lands on a bucket boundary. Resynchronizes after feed gaps.
	ModeSession Mode = iota
	// ModeFixed truncates each timestamp to the bucket width and aggregates
	// whatever falls inside, regardless of count. Used only for non-default
	// bucket widths.
	ModeFixed
)

// Config parameterizes the aggregator per asset class.
type Config struct {
	SessionOpen  int // minutes past midnight, e.g. 9*60+30
	SessionClose int
	SubInterval  time.Duration
	BucketWidth  time.Duration
}

// DefaultConfig is the equity/index session: 09:30-16:00, 5m bars into 15m buckets.
func DefaultConfig() Config {
	return Config{
		SessionOpen:  9*60 + 30,
		SessionClose: 16 * 60,
		SubInterval:  5 * time.Minute,
		BucketWidth:  15 * time.Minute,
	}
}

// CommodityConfig is the commodity session: 09:30-15:45.
func CommodityConfig() Config {
	c := DefaultConfig()
	c.SessionClose = 15*60 + 45
	return c
}

// ModeFor maps a bucket width to the strategy that handles it.
func (c Config) ModeFor() Mode {
	if c.BucketWidth == 15*time.Minute {
		return ModeSession
	}
	return ModeFixed
}

// Result carries the emitted candles plus the count of bars excluded before
// bucketing. Dropped rows are reported, never raised.
type Result struct {
	Candles []models.Candle
	Dropped int
}

// Aggregate buckets a chronologically sorted single-symbol bar series into
// coarser candles. Input is expected pre-sorted ascending by timestamp; a
// defensive stable sort is applied anyway since an unsorted feed would
// otherwise corrupt every bucket. Empty input yields an empty result.
//
// Running Aggregate twice on the same input produces identical candles: output
// keys are (symbol, timestamp) and the rule is deterministic.
func Aggregate(cfg Config, bars []models.Bar) Result {
	kept, dropped := dropUntimed(bars)
	if len(kept) == 0 {
		return Result{Dropped: dropped}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Timestamp.Before(kept[j].Timestamp) })

	var out []models.Candle
	switch cfg.ModeFor() {
	case ModeSession:
		for _, session := range splitSessions(kept) {
			out = append(out, aggregateSession(cfg, session)...)
		}
	case ModeFixed:
		out = aggregateFixed(cfg, kept)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return Result{Candles: out, Dropped: dropped}
}

// FilterSession keeps only bars whose time-of-day falls inside the configured
// session window, inclusive on both ends. The commodity feed publishes
// around-the-clock ticks that the warehouse does not track.
func FilterSession(cfg Config, bars []models.Bar) []models.Bar {
	out := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		mod := util.MinutesOfDay(b.Timestamp)
		if mod >= cfg.SessionOpen && mod <= cfg.SessionClose {
			out = append(out, b)
		}
	}
	return out
}

func dropUntimed(bars []models.Bar) ([]models.Bar, int) {
	kept := make([]models.Bar, 0, len(bars))
	dropped := 0
	for _, b := range bars {
		if b.Timestamp.IsZero() {
			dropped++
			continue
		}
		kept = append(kept, b)
	}
	return kept, dropped
}

// splitSessions groups consecutive bars by calendar date. Input is sorted, so
// each session is a contiguous run.
func splitSessions(bars []models.Bar) [][]models.Bar {
	var sessions [][]models.Bar
	start := 0
	for i := 1; i <= len(bars); i++ {
		if i == len(bars) || !util.SessionDate(bars[i].Timestamp).Equal(util.SessionDate(bars[start].Timestamp)) {
			sessions = append(sessions, bars[start:i])
			start = i
		}
	}
	return sessions
}

// aggregateSession applies the singleton+triple rule to one session's bars.
//
// The session-open bar stands alone: the API's first bar of the day covers
// only the opening tick, so merging it would skew the first bucket. After
// that, exactly three contiguous sub-interval bars whose last bar sits on a
// bucket boundary form one candle; anything else advances the cursor by one
// bar, which re-synchronizes the scan after a gap instead of drifting.
func aggregateSession(cfg Config, bars []models.Bar) []models.Candle {
	bucketMin := int(cfg.BucketWidth / time.Minute)
	var out []models.Candle

	i := 0
	for i < len(bars) {
		if util.MinutesOfDay(bars[i].Timestamp) == cfg.SessionOpen {
			b := bars[i]
			out = append(out, models.Candle{
				Symbol:         b.Symbol,
				Timestamp:      b.Timestamp,
				Open:           b.Open,
				High:           b.High,
				Low:            b.Low,
				Close:          b.Close,
				Volume:         b.Volume,
				SourceBarCount: 1,
			})
			i++
			continue
		}
		if i+2 >= len(bars) {
			break // trailing bars cannot form a complete triple
		}
		a, b, c := bars[i], bars[i+1], bars[i+2]
		if b.Timestamp.Sub(a.Timestamp) == cfg.SubInterval &&
			c.Timestamp.Sub(b.Timestamp) == cfg.SubInterval &&
			c.Timestamp.Minute()%bucketMin == 0 {
			out = append(out, models.Candle{
				Symbol:         a.Symbol,
				Timestamp:      c.Timestamp,
				Open:           a.Open,
				High:           max3(a.High, b.High, c.High),
				Low:            min3(a.Low, b.Low, c.Low),
				Close:          c.Close,
				Volume:         a.Volume + b.Volume + c.Volume,
				SourceBarCount: 3,
			})
			i += 3
			continue
		}
		i++
	}
	return out
}

// aggregateFixed is the secondary wall-clock grouper: bars are assigned to the
// bucket their timestamp truncates into, complete or not.
func aggregateFixed(cfg Config, bars []models.Bar) []models.Candle {
	var out []models.Candle
	i := 0
	for i < len(bars) {
		bucket := bars[i].Timestamp.Truncate(cfg.BucketWidth)
		j := i
		for j < len(bars) && bars[j].Timestamp.Truncate(cfg.BucketWidth).Equal(bucket) {
			j++
		}
		group := bars[i:j]
		c := models.Candle{
			Symbol:         group[0].Symbol,
			Timestamp:      bucket,
			Open:           group[0].Open,
			High:           group[0].High,
			Low:            group[0].Low,
			Close:          group[len(group)-1].Close,
			SourceBarCount: len(group),
		}
		for _, g := range group {
			if g.High > c.High {
				c.High = g.High
			}
			if g.Low < c.Low {
				c.Low = g.Low
			}
			c.Volume += g.Volume
		}
		out = append(out, c)
		i = j
	}
	return out
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

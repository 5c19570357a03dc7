package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/ingest"
	mid "MarketPulse/internal/middleware"
	"MarketPulse/internal/service/fmp"
	"MarketPulse/internal/services/aggregate"
	"MarketPulse/internal/services/yields"
	applogger "MarketPulse/pkg/logger"
)

// Universe names the symbols extracted per asset class.
type Universe struct {
	Stocks      []string
	Indexes     []string
	Commodities []string
}

// Extractor runs the scheduled extract-and-load cycle. Stocks and
// commodities come from the API at the warehouse resolution; indexes come at
// the finer resolution and are aggregated before loading. Treasury rates
// ride along once per cycle.
type Extractor struct {
	api       *fmp.Client
	proc      *BarProcessor
	pipe      *mid.LoadPipeline
	analytics drepo.AnalyticsStore
	metrics   drepo.Metrics
	l         *applogger.Logger

	universe     Universe
	lookback     time.Duration
	sessionCfg   aggregate.Config
	commodityCfg aggregate.Config
}

// NewExtractor creates an Extractor.
func NewExtractor(
	api *fmp.Client,
	proc *BarProcessor,
	pipe *mid.LoadPipeline,
	analytics drepo.AnalyticsStore,
	metrics drepo.Metrics,
	l *applogger.Logger,
	universe Universe,
	lookbackDays int,
	sessionCfg, commodityCfg aggregate.Config,
) *Extractor {
	if lookbackDays <= 0 {
		lookbackDays = 1
	}
	return &Extractor{
		api:          api,
		proc:         proc,
		pipe:         pipe,
		analytics:    analytics,
		metrics:      metrics,
		l:            l,
		universe:     universe,
		lookback:     time.Duration(lookbackDays) * 24 * time.Hour,
		sessionCfg:   sessionCfg,
		commodityCfg: commodityCfg,
	}
}

// Run performs one full extraction cycle. Per-symbol failures are logged and
// counted but do not stop the cycle; the first error is returned for the
// caller's visibility.
func (e *Extractor) Run(ctx context.Context) error {
	start := time.Now()
	to := start
	from := to.Add(-e.lookback)

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, sym := range e.universe.Stocks {
		keep(e.extractDirect(ctx, models.AssetStock, sym, from, to, nil))
	}
	for _, sym := range e.universe.Indexes {
		keep(e.extractIndex(ctx, sym, from, to))
	}
	for _, sym := range e.universe.Commodities {
		cfg := e.commodityCfg
		keep(e.extractDirect(ctx, models.AssetCommodity, sym, from, to, &cfg))
	}
	keep(e.extractYields(ctx, from, to))

	e.metrics.RecordLatency("extract_cycle", time.Since(start).Seconds())
	e.l.Info("extract cycle done",
		applogger.Int("stocks", len(e.universe.Stocks)),
		applogger.Int("indexes", len(e.universe.Indexes)),
		applogger.Int("commodities", len(e.universe.Commodities)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return firstErr
}

// extractDirect loads one symbol already at the warehouse resolution. A non
// nil session config filters bars to trading hours first.
func (e *Extractor) extractDirect(ctx context.Context, class models.AssetClass, symbol string, from, to time.Time, session *aggregate.Config) error {
	raw, err := e.api.IntradayBars(ctx, string(drepo.IV15m), symbol, from, to)
	if err != nil {
		e.metrics.RecordError("extract_fetch")
		return err
	}

	bars, dropped := ingest.ParseBars(symbol, raw)
	if dropped > 0 {
		e.metrics.RecordRowsDropped("parse", dropped)
		e.l.Warn("dropped unparsable rows",
			applogger.String("symbol", symbol),
			applogger.Int("dropped", dropped),
		)
	}
	if session != nil {
		bars = aggregate.FilterSession(*session, bars)
	}
	if len(bars) == 0 {
		return nil
	}

	ptrs := make([]*models.Bar, len(bars))
	for i := range bars {
		ptrs[i] = &bars[i]
	}
	return e.pipe.ProcessBatch(ctx, class, ptrs)
}

// extractIndex loads one index symbol: fetch at the sub-resolution,
// aggregate to warehouse buckets, and hand the candles to the backend with
// their source counts intact.
func (e *Extractor) extractIndex(ctx context.Context, symbol string, from, to time.Time) error {
	raw, err := e.api.IntradayBars(ctx, string(drepo.IV5m), symbol, from, to)
	if err != nil {
		e.metrics.RecordError("extract_fetch")
		return err
	}

	bars, dropped := ingest.ParseBars(symbol, raw)
	if dropped > 0 {
		e.metrics.RecordRowsDropped("parse", dropped)
	}

	res := aggregate.Aggregate(e.sessionCfg, bars)
	if res.Dropped > 0 {
		e.metrics.RecordRowsDropped("aggregate", res.Dropped)
	}
	if len(res.Candles) == 0 {
		return nil
	}
	if err := e.proc.ProcessCandles(ctx, models.AssetIndex, res.Candles); err != nil {
		return fmt.Errorf("load index %s: %w", symbol, err)
	}
	return nil
}

// extractYields loads the treasury ladder with derived curve analytics.
func (e *Extractor) extractYields(ctx context.Context, from, to time.Time) error {
	raw, err := e.api.TreasuryRates(ctx, from, to)
	if err != nil {
		e.metrics.RecordError("extract_yields")
		return err
	}
	for _, r := range raw {
		y, ok := ingest.ParseTreasury(r)
		if !ok {
			e.metrics.RecordRowsDropped("parse_treasury", 1)
			continue
		}
		if err := e.analytics.UpsertYields(ctx, yields.Derive(y)); err != nil {
			e.metrics.RecordError("store_yields")
			return fmt.Errorf("store yields: %w", err)
		}
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/services/breadth"
	"MarketPulse/internal/services/enrich"
	"MarketPulse/internal/services/indicators"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/queue"
	"MarketPulse/pkg/util"
)

// baselineDays is the trailing window for relative-volume baselines.
const baselineDays = 30

// TransformJobType routes per-symbol transform jobs on the work queue.
const TransformJobType = "transform_symbol"

// TransformJobPayload is the queued unit of transform work.
type TransformJobPayload struct {
	Class  string `json:"class"`
	Symbol string `json:"symbol"`
	AsOf   string `json:"as_of"`
}

// Transformer derives the analytics layer from loaded raw bars: per-row
// enrichment for every class, rolling indicators for stocks, and the daily
// breadth rollup. All writes land in replacing tables, so rerunning a date
// is safe.
type Transformer struct {
	raw       drepo.RawStore
	analytics drepo.AnalyticsStore
	metrics   drepo.Metrics
	l         *applogger.Logger
	jobs      queue.QueueService // nil runs symbols inline
}

// NewTransformer creates a Transformer. Pass a nil queue service to run
// per-symbol work inline instead of fanning out.
func NewTransformer(
	raw drepo.RawStore,
	analytics drepo.AnalyticsStore,
	metrics drepo.Metrics,
	l *applogger.Logger,
	jobs queue.QueueService,
) *Transformer {
	return &Transformer{raw: raw, analytics: analytics, metrics: metrics, l: l, jobs: jobs}
}

// Run transforms every symbol with fresh raw data and then rolls up market
// breadth for the date. With a queue attached, symbol work is published for
// the workers and only the rollup runs here; the rollup then reflects the
// previous completed pass.
func (t *Transformer) Run(ctx context.Context, date time.Time) error {
	start := time.Now()
	since := util.SessionDate(date)

	var firstErr error
	for _, class := range []models.AssetClass{models.AssetStock, models.AssetIndex, models.AssetCommodity} {
		symbols, err := t.raw.Symbols(ctx, class, since)
		if err != nil {
			t.metrics.RecordError("transform_symbols")
			if firstErr == nil {
				firstErr = fmt.Errorf("list %s symbols: %w", class, err)
			}
			continue
		}
		for _, sym := range symbols {
			if t.jobs != nil {
				err = t.jobs.PublishMessage(ctx, TransformJobType, TransformJobPayload{
					Class:  string(class),
					Symbol: sym,
					AsOf:   date.Format(util.APITimeLayout),
				})
			} else {
				err = t.TransformSymbol(ctx, class, sym, date)
			}
			if err != nil {
				t.metrics.RecordError("transform_symbol")
				t.l.Error("transform symbol failed",
					applogger.String("class", string(class)),
					applogger.String("symbol", sym),
					applogger.Error(err),
				)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	if err := t.SummarizeBreadth(ctx, date); err != nil && firstErr == nil {
		firstErr = err
	}

	t.metrics.RecordLatency("transform_cycle", time.Since(start).Seconds())
	return firstErr
}

// TransformSymbol enriches one symbol's recent bars and, for stocks,
// recomputes its indicator rows.
func (t *Transformer) TransformSymbol(ctx context.Context, class models.AssetClass, symbol string, asOf time.Time) error {
	day := util.SessionDate(asOf)
	from := day.AddDate(0, 0, -baselineDays)
	to := day.AddDate(0, 0, 1)

	bars, err := t.raw.GetSeries(ctx, class, symbol, from, to)
	if err != nil {
		return fmt.Errorf("get series %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil
	}

	// Baseline excludes the day being transformed.
	var sum, n float64
	var today []models.Bar
	for _, b := range bars {
		if b.Timestamp.Before(day) {
			sum += float64(b.Volume)
			n++
		} else {
			today = append(today, b)
		}
	}
	var baseline float64
	if n > 0 {
		baseline = sum / n
	}
	if len(today) == 0 {
		return nil
	}

	rows := enrich.Enrich(today, baseline)
	if err := t.analytics.UpsertEnriched(ctx, class, rows); err != nil {
		return fmt.Errorf("upsert enriched %s: %w", symbol, err)
	}
	t.metrics.RecordRowsLoaded("analytics", symbol, len(rows))

	if class == models.AssetStock {
		ind := indicators.Compute(bars)
		if len(ind) == 0 {
			t.metrics.RecordRowsDropped("indicators_skip", 1)
			t.l.Debug("indicator history too short, symbol skipped",
				applogger.String("symbol", symbol),
				applogger.Int("rows", len(bars)),
			)
		} else {
			if err := t.analytics.UpsertIndicators(ctx, ind); err != nil {
				return fmt.Errorf("upsert indicators %s: %w", symbol, err)
			}
			t.metrics.RecordRowsLoaded("indicators", symbol, len(ind))
		}
	}
	return nil
}

// SummarizeBreadth rolls one date's per-symbol rows into the daily market
// summary. A date with no rows writes nothing.
func (t *Transformer) SummarizeBreadth(ctx context.Context, date time.Time) error {
	rows, err := t.analytics.GetDailyRows(ctx, date)
	if err != nil {
		t.metrics.RecordError("breadth_rows")
		return fmt.Errorf("get daily rows: %w", err)
	}
	sum := breadth.Summarize(date, rows)
	if sum == nil {
		t.l.Debug("no rows for breadth rollup", applogger.String("date", util.SessionDate(date).Format("2006-01-02")))
		return nil
	}
	if err := t.analytics.UpsertDailySummary(ctx, sum); err != nil {
		t.metrics.RecordError("breadth_store")
		return fmt.Errorf("upsert daily summary: %w", err)
	}
	t.l.Info("daily breadth stored",
		applogger.String("date", sum.Date.Format("2006-01-02")),
		applogger.Int("instruments", sum.TotalInstruments),
		applogger.Int("advancing", sum.AdvancingCount),
		applogger.Int("declining", sum.DecliningCount),
	)
	return nil
}

// TransformSymbolJob adapts Transformer to the work queue.
type TransformSymbolJob struct {
	t *Transformer
}

func NewTransformSymbolJob(t *Transformer) *TransformSymbolJob {
	return &TransformSymbolJob{t: t}
}

func (j *TransformSymbolJob) Name() string { return "transform-symbol" }
func (j *TransformSymbolJob) Type() string { return TransformJobType }

func (j *TransformSymbolJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[TransformJobPayload](payload)
	if err != nil {
		return fmt.Errorf("parse transform payload: %w", err)
	}
	asOf := util.ParseTimeDefault(p.AsOf, time.Now().UTC())
	return j.t.TransformSymbol(ctx, models.AssetClass(p.Class), p.Symbol, asOf)
}

var _ queue.Job = (*TransformSymbolJob)(nil)

package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/services/quality"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/util"
)

// QualityRunner validates one date's loaded bars across all asset classes.
// Findings go to logs and metrics; the report is also returned so the API
// can serve it.
type QualityRunner struct {
	raw       drepo.RawStore
	analytics drepo.AnalyticsStore
	metrics   drepo.Metrics
	l         *applogger.Logger
}

func NewQualityRunner(raw drepo.RawStore, analytics drepo.AnalyticsStore, metrics drepo.Metrics, l *applogger.Logger) *QualityRunner {
	return &QualityRunner{raw: raw, analytics: analytics, metrics: metrics, l: l}
}

// Run validates the bars loaded for date and returns the combined report.
func (q *QualityRunner) Run(ctx context.Context, date time.Time) (*models.QualityReport, error) {
	day := util.SessionDate(date)
	next := day.AddDate(0, 0, 1)

	var bars []models.Bar
	baselines := make(map[string]quality.VolumeBaseline)

	for _, class := range []models.AssetClass{models.AssetStock, models.AssetIndex, models.AssetCommodity} {
		symbols, err := q.raw.Symbols(ctx, class, day)
		if err != nil {
			return nil, fmt.Errorf("list %s symbols: %w", class, err)
		}
		for _, sym := range symbols {
			series, err := q.raw.GetSeries(ctx, class, sym, day, next)
			if err != nil {
				return nil, fmt.Errorf("get series %s: %w", sym, err)
			}
			bars = append(bars, series...)
		}

		history, err := q.analytics.VolumeBaseline(ctx, class, symbols, day.AddDate(0, 0, -baselineDays), day)
		if err != nil {
			return nil, fmt.Errorf("volume baseline: %w", err)
		}
		for sym, volumes := range history {
			if b, ok := baselineStats(volumes); ok {
				baselines[sym] = b
			}
		}
	}

	report := quality.Validate(bars, baselines)
	for _, c := range report.Checks {
		q.metrics.RecordQualityCheck(c.Name, c.Passed)
		if !c.Passed {
			q.l.Warn("quality check failed",
				applogger.String("check", c.Name),
				applogger.String("message", c.Message),
				applogger.Int("flags", len(c.Flags)),
			)
		}
	}
	q.l.Info("quality run done",
		applogger.String("date", day.Format("2006-01-02")),
		applogger.Int("bars", len(bars)),
		applogger.Bool("passed", report.Passed()),
	)
	return report, nil
}

// baselineStats folds a volume series into its mean and deviation. Fewer
// than two observations is not a usable baseline.
func baselineStats(volumes []int64) (quality.VolumeBaseline, bool) {
	if len(volumes) < 2 {
		return quality.VolumeBaseline{}, false
	}
	var sum float64
	for _, v := range volumes {
		sum += float64(v)
	}
	mean := sum / float64(len(volumes))

	var sq float64
	for _, v := range volumes {
		d := float64(v) - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(volumes)-1))
	return quality.VolumeBaseline{Mean: mean, Stddev: stddev}, true
}

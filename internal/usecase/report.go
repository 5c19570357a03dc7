package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
	applogger "MarketPulse/pkg/logger"
)

// reportWindowDays is the trailing window a report covers.
const reportWindowDays = 7

// reportTopN bounds the best/worst performer lists.
const reportTopN = 5

// ReportBuilder assembles the weekly operator report: ingestion coverage per
// asset class, best and worst stock performers, index returns, a condensed
// quality summary, and data freshness.
type ReportBuilder struct {
	store   drepo.ReportStore
	quality *QualityRunner
	l       *applogger.Logger
}

func NewReportBuilder(store drepo.ReportStore, quality *QualityRunner, l *applogger.Logger) *ReportBuilder {
	return &ReportBuilder{store: store, quality: quality, l: l}
}

// Build produces the report for the week ending at asOf. Coverage and
// performance read the warehouse; the quality section reruns the checks for
// asOf's session date.
func (r *ReportBuilder) Build(ctx context.Context, asOf time.Time) (*models.WeeklyReport, error) {
	weekStart := asOf.AddDate(0, 0, -reportWindowDays)

	rep := &models.WeeklyReport{
		GeneratedAt: time.Now().UTC(),
		WeekStart:   weekStart,
		WeekEnd:     asOf,
		Coverage:    make(map[models.AssetClass]models.ClassCoverage, 3),
	}

	for _, class := range []models.AssetClass{models.AssetStock, models.AssetIndex, models.AssetCommodity} {
		cov, err := r.store.Coverage(ctx, class, weekStart, asOf)
		if err != nil {
			return nil, fmt.Errorf("coverage %s: %w", class, err)
		}
		rep.Coverage[class] = cov
	}

	stockReturns, err := r.store.WeeklyReturns(ctx, models.AssetStock, weekStart, asOf)
	if err != nil {
		return nil, fmt.Errorf("stock returns: %w", err)
	}
	rep.TopStocks, rep.BottomStocks = rankReturns(stockReturns, reportTopN)

	rep.Indexes, err = r.store.WeeklyReturns(ctx, models.AssetIndex, weekStart, asOf)
	if err != nil {
		return nil, fmt.Errorf("index returns: %w", err)
	}

	qr, err := r.quality.Run(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("quality run: %w", err)
	}
	rep.Quality = summarizeQuality(qr)

	latest, err := r.store.LatestTimestamp(ctx, models.AssetStock)
	if err != nil {
		return nil, fmt.Errorf("latest timestamp: %w", err)
	}
	if !latest.IsZero() {
		hours := time.Since(latest).Hours()
		rep.FreshnessHours = &hours
	}

	r.l.Info("weekly report built",
		applogger.String("week_start", weekStart.Format("2006-01-02")),
		applogger.String("week_end", asOf.Format("2006-01-02")),
		applogger.String("quality", rep.Quality.OverallStatus),
	)
	return rep, nil
}

// rankReturns splits returns into the n best and n worst, both ordered from
// the extreme inward. Input order is not assumed.
func rankReturns(returns []models.SymbolReturn, n int) (top, bottom []models.SymbolReturn) {
	if len(returns) == 0 {
		return nil, nil
	}
	sorted := make([]models.SymbolReturn, len(returns))
	copy(sorted, returns)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ReturnPct > sorted[j].ReturnPct })

	if n > len(sorted) {
		n = len(sorted)
	}
	top = append(top, sorted[:n]...)
	for i := len(sorted) - 1; i >= len(sorted)-n; i-- {
		bottom = append(bottom, sorted[i])
	}
	return top, bottom
}

func summarizeQuality(qr *models.QualityReport) models.QualitySummary {
	sum := models.QualitySummary{
		OverallStatus:   "PASS",
		ChecksPerformed: len(qr.Checks),
	}
	for _, c := range qr.Checks {
		if c.Passed {
			sum.ChecksPassed++
			continue
		}
		sum.Issues = append(sum.Issues, fmt.Sprintf("%s: %s", c.Name, c.Message))
	}
	if !qr.Passed() {
		sum.OverallStatus = "FAIL"
	}
	return sum
}

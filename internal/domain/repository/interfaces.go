package repository

import (
	"context"
	"time"

	"MarketPulse/internal/domain/models"
)

// Publisher publishes parsed bars to the message backend.
type Publisher interface {
	Publish(ctx context.Context, class models.AssetClass, b *models.Bar) error
	PublishBatch(ctx context.Context, class models.AssetClass, bars []*models.Bar) error
	PublishCandles(ctx context.Context, class models.AssetClass, candles []models.Candle) error
	Close() error
}

// RawStore persists and reads loaded bars (the pre-transform warehouse
// layer). StoreBatch records direct-loaded bars with a source count of one;
// StoreCandles keeps the count the aggregation produced.
type RawStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBatch(ctx context.Context, class models.AssetClass, bars []*models.Bar) error
	StoreCandles(ctx context.Context, class models.AssetClass, candles []models.Candle) error
	GetSeries(ctx context.Context, class models.AssetClass, symbol string, from, to time.Time) ([]models.Bar, error)
	GetCandles(ctx context.Context, class models.AssetClass, symbol string, from, to time.Time, limit int) ([]models.Candle, error)
	Symbols(ctx context.Context, class models.AssetClass, since time.Time) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}

// AnalyticsStore persists derived rows. All writes are upsert-by-key: the
// backing tables replace rows on (symbol, ts) or date, so reprocessing the
// same input never duplicates.
type AnalyticsStore interface {
	UpsertEnriched(ctx context.Context, class models.AssetClass, rows []models.EnrichedBar) error
	UpsertIndicators(ctx context.Context, rows []models.IndicatorRow) error
	UpsertDailySummary(ctx context.Context, s *models.DailySummary) error
	UpsertYields(ctx context.Context, y *models.TreasuryYield) error

	GetLatestNIndicators(ctx context.Context, symbol string, n int) ([]models.IndicatorRow, error)
	GetDailyRows(ctx context.Context, date time.Time) ([]models.DailyRow, error)
	GetDailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error)
	GetYields(ctx context.Context, from, to time.Time) ([]models.TreasuryYield, error)
	VolumeBaseline(ctx context.Context, class models.AssetClass, symbols []string, from, to time.Time) (map[string][]int64, error)
}

// ReportStore reads the rollup queries the weekly report is built from.
// WeeklyReturns pairs each symbol's first and last close inside the window
// into a percentage return; symbols with a zero starting close are omitted.
type ReportStore interface {
	Coverage(ctx context.Context, class models.AssetClass, from, to time.Time) (models.ClassCoverage, error)
	WeeklyReturns(ctx context.Context, class models.AssetClass, from, to time.Time) ([]models.SymbolReturn, error)
	LatestTimestamp(ctx context.Context, class models.AssetClass) (time.Time, error)
}

// Metrics abstracts pipeline instrumentation.
type Metrics interface {
	RecordRowsLoaded(table, symbol string, n int)
	RecordRowsDropped(stage string, n int)
	RecordError(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordQualityCheck(check string, passed bool)
}

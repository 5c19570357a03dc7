package usecase

import (
	"context"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	applogger "MarketPulse/pkg/logger"
)

type fakeRawStore struct {
	bars []models.Bar
}

func (f *fakeRawStore) Init(context.Context) error { return nil }
func (f *fakeRawStore) StoreBatch(context.Context, models.AssetClass, []*models.Bar) error {
	return nil
}
func (f *fakeRawStore) StoreCandles(context.Context, models.AssetClass, []models.Candle) error {
	return nil
}
func (f *fakeRawStore) GetSeries(context.Context, models.AssetClass, string, time.Time, time.Time) ([]models.Bar, error) {
	return f.bars, nil
}
func (f *fakeRawStore) GetCandles(context.Context, models.AssetClass, string, time.Time, time.Time, int) ([]models.Candle, error) {
	return nil, nil
}
func (f *fakeRawStore) Symbols(context.Context, models.AssetClass, time.Time) ([]string, error) {
	return nil, nil
}
func (f *fakeRawStore) Health(context.Context) error { return nil }
func (f *fakeRawStore) Close() error                 { return nil }

type fakeAnalyticsStore struct {
	enriched   int
	indicators int
}

func (f *fakeAnalyticsStore) UpsertEnriched(_ context.Context, _ models.AssetClass, rows []models.EnrichedBar) error {
	f.enriched += len(rows)
	return nil
}
func (f *fakeAnalyticsStore) UpsertIndicators(_ context.Context, rows []models.IndicatorRow) error {
	f.indicators += len(rows)
	return nil
}
func (f *fakeAnalyticsStore) UpsertDailySummary(context.Context, *models.DailySummary) error {
	return nil
}
func (f *fakeAnalyticsStore) UpsertYields(context.Context, *models.TreasuryYield) error { return nil }
func (f *fakeAnalyticsStore) GetLatestNIndicators(context.Context, string, int) ([]models.IndicatorRow, error) {
	return nil, nil
}
func (f *fakeAnalyticsStore) GetDailyRows(context.Context, time.Time) ([]models.DailyRow, error) {
	return nil, nil
}
func (f *fakeAnalyticsStore) GetDailySummary(context.Context, time.Time) (*models.DailySummary, error) {
	return nil, nil
}
func (f *fakeAnalyticsStore) GetYields(context.Context, time.Time, time.Time) ([]models.TreasuryYield, error) {
	return nil, nil
}
func (f *fakeAnalyticsStore) VolumeBaseline(context.Context, models.AssetClass, []string, time.Time, time.Time) (map[string][]int64, error) {
	return nil, nil
}

type countingMetrics struct {
	dropped map[string]int
	loaded  map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{dropped: map[string]int{}, loaded: map[string]int{}}
}

func (m *countingMetrics) RecordRowsLoaded(table, _ string, n int) { m.loaded[table] += n }
func (m *countingMetrics) RecordRowsDropped(stage string, n int)   { m.dropped[stage] += n }
func (m *countingMetrics) RecordError(string)                      {}
func (m *countingMetrics) RecordLastClose(string, float64)         {}
func (m *countingMetrics) RecordLatency(string, float64)           {}
func (m *countingMetrics) RecordQualityCheck(string, bool)         {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func stockBars(asOf time.Time, n int) []models.Bar {
	bars := make([]models.Bar, 0, n)
	for i := 0; i < n; i++ {
		ts := asOf.Add(time.Duration(i) * 5 * time.Minute)
		bars = append(bars, models.Bar{
			Symbol: "AAPL", Timestamp: ts,
			Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000,
		})
	}
	return bars
}

func TestTransformSymbolShortHistorySkipsIndicators(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	raw := &fakeRawStore{bars: stockBars(asOf, 5)}
	analytics := &fakeAnalyticsStore{}
	metrics := newCountingMetrics()
	tr := NewTransformer(raw, analytics, metrics, testLogger(t), nil)

	if err := tr.TransformSymbol(context.Background(), models.AssetStock, "AAPL", asOf); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if analytics.enriched == 0 {
		t.Fatal("enriched rows must still be written for a short series")
	}
	if analytics.indicators != 0 {
		t.Fatalf("no indicator rows expected, got %d", analytics.indicators)
	}
	if metrics.dropped["indicators_skip"] != 1 {
		t.Fatalf("skip must be reported, dropped=%v", metrics.dropped)
	}
}

func TestTransformSymbolLongHistoryStoresIndicators(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	raw := &fakeRawStore{bars: stockBars(asOf, 30)}
	analytics := &fakeAnalyticsStore{}
	metrics := newCountingMetrics()
	tr := NewTransformer(raw, analytics, metrics, testLogger(t), nil)

	if err := tr.TransformSymbol(context.Background(), models.AssetStock, "AAPL", asOf); err != nil {
		t.Fatalf("transform: %v", err)
	}
	if analytics.indicators == 0 {
		t.Fatal("indicator rows expected for a 30-row series")
	}
	if metrics.dropped["indicators_skip"] != 0 {
		t.Fatalf("no skip expected, dropped=%v", metrics.dropped)
	}
}

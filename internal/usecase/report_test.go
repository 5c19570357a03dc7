package usecase

import (
	"context"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

type fakeReportStore struct {
	coverage map[models.AssetClass]models.ClassCoverage
	returns  map[models.AssetClass][]models.SymbolReturn
	latest   time.Time
}

func (f *fakeReportStore) Coverage(_ context.Context, class models.AssetClass, _, _ time.Time) (models.ClassCoverage, error) {
	return f.coverage[class], nil
}
func (f *fakeReportStore) WeeklyReturns(_ context.Context, class models.AssetClass, _, _ time.Time) ([]models.SymbolReturn, error) {
	return f.returns[class], nil
}
func (f *fakeReportStore) LatestTimestamp(context.Context, models.AssetClass) (time.Time, error) {
	return f.latest, nil
}

func emptyQualityRunner(t *testing.T) *QualityRunner {
	t.Helper()
	return NewQualityRunner(&fakeRawStore{}, &fakeAnalyticsStore{}, newCountingMetrics(), testLogger(t))
}

func TestRankReturns(t *testing.T) {
	in := []models.SymbolReturn{
		{Symbol: "A", ReturnPct: 1},
		{Symbol: "B", ReturnPct: -4},
		{Symbol: "C", ReturnPct: 8},
		{Symbol: "D", ReturnPct: 0},
		{Symbol: "E", ReturnPct: 3},
		{Symbol: "F", ReturnPct: -1},
		{Symbol: "G", ReturnPct: 5},
	}
	top, bottom := rankReturns(in, 5)
	if len(top) != 5 || len(bottom) != 5 {
		t.Fatalf("expected 5+5, got %d+%d", len(top), len(bottom))
	}
	if top[0].Symbol != "C" || top[1].Symbol != "G" {
		t.Fatalf("top must lead with the best performers: %+v", top)
	}
	if bottom[0].Symbol != "B" || bottom[1].Symbol != "F" {
		t.Fatalf("bottom must lead with the worst performers: %+v", bottom)
	}
}

func TestRankReturnsShortInput(t *testing.T) {
	in := []models.SymbolReturn{{Symbol: "A", ReturnPct: 2}, {Symbol: "B", ReturnPct: -2}}
	top, bottom := rankReturns(in, 5)
	if len(top) != 2 || len(bottom) != 2 {
		t.Fatalf("expected 2+2, got %d+%d", len(top), len(bottom))
	}
	if top[0].Symbol != "A" || bottom[0].Symbol != "B" {
		t.Fatalf("unexpected ranking: top=%+v bottom=%+v", top, bottom)
	}
}

func TestBuildWeeklyReport(t *testing.T) {
	latest := time.Now().UTC().Add(-2 * time.Hour)
	earliest := latest.AddDate(0, 0, -5)
	store := &fakeReportStore{
		coverage: map[models.AssetClass]models.ClassCoverage{
			models.AssetStock: {Records: 1500, Symbols: 10, Earliest: &earliest, Latest: &latest},
			models.AssetIndex: {Records: 450, Symbols: 3, Earliest: &earliest, Latest: &latest},
		},
		returns: map[models.AssetClass][]models.SymbolReturn{
			models.AssetStock: {
				{Symbol: "AAPL", ReturnPct: 2.5},
				{Symbol: "MSFT", ReturnPct: -1.2},
			},
			models.AssetIndex: {{Symbol: "^GSPC", ReturnPct: 0.8}},
		},
		latest: latest,
	}
	rb := NewReportBuilder(store, emptyQualityRunner(t), testLogger(t))

	rep, err := rb.Build(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(rep.Coverage) != 3 {
		t.Fatalf("expected coverage for all classes, got %d", len(rep.Coverage))
	}
	if rep.Coverage[models.AssetStock].Records != 1500 {
		t.Fatalf("unexpected stock coverage: %+v", rep.Coverage[models.AssetStock])
	}
	if len(rep.TopStocks) != 2 || rep.TopStocks[0].Symbol != "AAPL" {
		t.Fatalf("unexpected top stocks: %+v", rep.TopStocks)
	}
	if len(rep.Indexes) != 1 || rep.Indexes[0].Symbol != "^GSPC" {
		t.Fatalf("unexpected index returns: %+v", rep.Indexes)
	}
	if rep.Quality.OverallStatus != "PASS" {
		t.Fatalf("quality with no bars must pass vacuously: %+v", rep.Quality)
	}
	if rep.FreshnessHours == nil || *rep.FreshnessHours < 1.9 || *rep.FreshnessHours > 3 {
		t.Fatalf("freshness must reflect the latest bar age: %v", rep.FreshnessHours)
	}
}

func TestBuildWeeklyReportEmptyWarehouse(t *testing.T) {
	rb := NewReportBuilder(&fakeReportStore{}, emptyQualityRunner(t), testLogger(t))

	rep, err := rb.Build(context.Background(), time.Now().UTC())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if rep.FreshnessHours != nil {
		t.Fatalf("empty warehouse has no freshness figure, got %v", *rep.FreshnessHours)
	}
	if len(rep.TopStocks) != 0 || len(rep.BottomStocks) != 0 {
		t.Fatalf("no performers expected: top=%+v bottom=%+v", rep.TopStocks, rep.BottomStocks)
	}
	if rep.Quality.ChecksPerformed == 0 {
		t.Fatal("quality checks must still be reported")
	}
}

package enrich

import (
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

func ts(min int) time.Time {
	return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute)
}

func TestEnrichFirstRowHasNoChange(t *testing.T) {
	rows := Enrich([]models.Bar{
		{Symbol: "AAPL", Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
	}, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].PriceChange != nil || rows[0].PriceChangePct != nil {
		t.Fatalf("first row must have nil change fields: %+v", rows[0])
	}
}

func TestEnrichChangeVsPreviousClose(t *testing.T) {
	rows := Enrich([]models.Bar{
		{Symbol: "AAPL", Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
		{Symbol: "AAPL", Timestamp: ts(5), Open: 100, High: 103, Low: 100, Close: 102.5, Volume: 1500},
	}, 0)
	r := rows[1]
	if r.PriceChange == nil || *r.PriceChange != 2.5 {
		t.Fatalf("price change: want 2.5, got %v", r.PriceChange)
	}
	if r.PriceChangePct == nil || *r.PriceChangePct != 2.5 {
		t.Fatalf("price change pct: want 2.50, got %v", r.PriceChangePct)
	}
}

func TestEnrichAvgPriceAndVolatility(t *testing.T) {
	rows := Enrich([]models.Bar{
		{Symbol: "SPX", Timestamp: ts(0), Open: 10, High: 12, Low: 9, Close: 10, Volume: 100},
	}, 0)
	r := rows[0]
	// (12 + 9 + 10) / 3
	if r.AvgPrice != 10.3333 {
		t.Fatalf("avg price: want 10.3333, got %v", r.AvgPrice)
	}
	// (12 - 9) / 10 * 100
	if r.Volatility == nil || *r.Volatility != 30 {
		t.Fatalf("volatility: want 30, got %v", r.Volatility)
	}
}

func TestEnrichRelativeVolume(t *testing.T) {
	rows := Enrich([]models.Bar{
		{Symbol: "AAPL", Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: 3000},
	}, 2000)
	if rows[0].RelativeVolume == nil || *rows[0].RelativeVolume != 1.5 {
		t.Fatalf("relative volume: want 1.5, got %v", rows[0].RelativeVolume)
	}

	rows = Enrich([]models.Bar{
		{Symbol: "AAPL", Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: 3000},
	}, 0)
	if rows[0].RelativeVolume != nil {
		t.Fatalf("relative volume must be nil without a baseline, got %v", *rows[0].RelativeVolume)
	}
}

func TestEnrichSortsByTimestamp(t *testing.T) {
	rows := Enrich([]models.Bar{
		{Symbol: "AAPL", Timestamp: ts(5), Open: 100, High: 101, Low: 99, Close: 102, Volume: 100},
		{Symbol: "AAPL", Timestamp: ts(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
	}, 0)
	if !rows[0].Timestamp.Equal(ts(0)) {
		t.Fatalf("rows must be time ordered, first is %v", rows[0].Timestamp)
	}
	if rows[1].PriceChange == nil || *rows[1].PriceChange != 2 {
		t.Fatalf("change must use the chronologically previous close, got %v", rows[1].PriceChange)
	}
}

func TestQualityScorePenalties(t *testing.T) {
	cases := []struct {
		name string
		bar  models.Bar
		want int
	}{
		{
			name: "clean",
			bar:  models.Bar{Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
			want: 100,
		},
		{
			name: "broken ohlc ordering",
			bar:  models.Bar{Open: 100, High: 99, Low: 98, Close: 100, Volume: 1000},
			want: 70,
		},
		{
			name: "zero volume",
			bar:  models.Bar{Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 0},
			want: 80,
		},
		{
			name: "wide range costs both range penalties",
			bar:  models.Bar{Open: 100, High: 130, Low: 95, Close: 100, Volume: 1000},
			want: 80,
		},
	}
	for _, tc := range cases {
		rows := Enrich([]models.Bar{{Symbol: "X", Timestamp: ts(0), Open: tc.bar.Open,
			High: tc.bar.High, Low: tc.bar.Low, Close: tc.bar.Close, Volume: tc.bar.Volume}}, 0)
		if got := rows[0].QualityScore; got != tc.want {
			t.Fatalf("%s: quality score want %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestEnrichEmpty(t *testing.T) {
	if rows := Enrich(nil, 0); rows != nil {
		t.Fatalf("expected nil for empty input, got %v", rows)
	}
}

package breadth

import (
    "testing"
    "time"

    "MarketPulse/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

var testDate = time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)

func TestSummarizeBreadthArithmetic(t *testing.T) {
    // 10 rows: 6 advancing, 3 declining, 1 unchanged.
    rows := []models.DailyRow{
        {Symbol: "A", PriceChange: fp(1), Volume: 100, AvgPrice: 10},
        {Symbol: "B", PriceChange: fp(2), Volume: 100, AvgPrice: 10},
        {Symbol: "C", PriceChange: fp(0.5), Volume: 100, AvgPrice: 10},
        {Symbol: "D", PriceChange: fp(0.1), Volume: 100, AvgPrice: 10},
        {Symbol: "E", PriceChange: fp(3), Volume: 100, AvgPrice: 10},
        {Symbol: "F", PriceChange: fp(0.2), Volume: 100, AvgPrice: 10},
        {Symbol: "G", PriceChange: fp(-1), Volume: 100, AvgPrice: 10},
        {Symbol: "H", PriceChange: fp(-2), Volume: 100, AvgPrice: 10},
        {Symbol: "I", PriceChange: fp(-0.5), Volume: 100, AvgPrice: 10},
        {Symbol: "J", PriceChange: fp(0), Volume: 100, AvgPrice: 10},
    }
    s := Summarize(testDate, rows)
    if s == nil {
        t.Fatalf("expected summary")
    }
    if s.AdvancingCount != 6 || s.DecliningCount != 3 || s.UnchangedCount != 1 {
        t.Fatalf("counts wrong: %+v", s)
    }
    if s.BreadthPct != 30.00 {
        t.Fatalf("breadth_pct: want 30.00, got %v", s.BreadthPct)
    }
    if s.AdvanceDeclineRatio == nil || *s.AdvanceDeclineRatio != 2.00 {
        t.Fatalf("advance_decline_ratio: want 2.00, got %v", s.AdvanceDeclineRatio)
    }
    if s.UpVolume != 600 || s.DownVolume != 300 || s.TotalVolume != 1000 {
        t.Fatalf("volume split wrong: %+v", s)
    }
}

func TestSummarizeNoDecliners(t *testing.T) {
    rows := []models.DailyRow{
        {Symbol: "A", PriceChange: fp(1), Volume: 10, AvgPrice: 5},
        {Symbol: "B", PriceChange: fp(2), Volume: 10, AvgPrice: 5},
    }
    s := Summarize(testDate, rows)
    if s.AdvanceDeclineRatio != nil {
        t.Fatalf("ratio must be nil when nothing declined, got %v", *s.AdvanceDeclineRatio)
    }
}

func TestSummarizeVWAP(t *testing.T) {
    rows := []models.DailyRow{
        {Symbol: "A", PriceChange: fp(1), Volume: 100, AvgPrice: 10},
        {Symbol: "B", PriceChange: fp(-1), Volume: 300, AvgPrice: 20},
    }
    s := Summarize(testDate, rows)
    // (10*100 + 20*300) / 400 = 17.5
    if s.VWAP == nil || *s.VWAP != 17.5 {
        t.Fatalf("vwap: want 17.5, got %v", s.VWAP)
    }
}

func TestSummarizeZeroVolumeDay(t *testing.T) {
    rows := []models.DailyRow{
        {Symbol: "A", PriceChange: fp(1), Volume: 0, AvgPrice: 10},
        {Symbol: "B", PriceChange: fp(-1), Volume: 0, AvgPrice: 20},
    }
    s := Summarize(testDate, rows)
    if s == nil {
        t.Fatalf("zero-volume day must still produce a summary")
    }
    if s.VWAP != nil {
        t.Fatalf("vwap must be nil on a zero-volume day, got %v", *s.VWAP)
    }
    if s.TotalInstruments != 2 || s.AdvancingCount != 1 || s.DecliningCount != 1 {
        t.Fatalf("other fields must still be populated: %+v", s)
    }
}

func TestSummarizeEmptyDay(t *testing.T) {
    if s := Summarize(testDate, nil); s != nil {
        t.Fatalf("empty day must produce no summary, got %+v", s)
    }
}

func TestSummarizeNilChangeIsUnchanged(t *testing.T) {
    rows := []models.DailyRow{
        {Symbol: "A", Volume: 10, AvgPrice: 5}, // first row of its series, no prior close
    }
    s := Summarize(testDate, rows)
    if s.UnchangedCount != 1 || s.AdvancingCount != 0 || s.DecliningCount != 0 {
        t.Fatalf("nil change must count as unchanged: %+v", s)
    }
}

func TestSummarizeDateNormalized(t *testing.T) {
    s := Summarize(testDate, []models.DailyRow{{Symbol: "A", Volume: 1, AvgPrice: 1}})
    if s.Date.Hour() != 0 || s.Date.Day() != 10 {
        t.Fatalf("summary date must be calendar date, got %v", s.Date)
    }
}

package ingest

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseBarsWellFormed(t *testing.T) {
	payload := `[
		{"date":"2025-03-10 09:30:00","open":100.5,"high":101.2,"low":100.1,"close":100.9,"volume":125000},
		{"date":"2025-03-10 09:35:00","open":100.9,"high":101.5,"low":100.7,"close":101.3,"volume":98000}
	]`
	var raw []RawBar
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	bars, dropped := ParseBars("AAPL", raw)
	if dropped != 0 || len(bars) != 2 {
		t.Fatalf("want 2 bars 0 dropped, got %d bars %d dropped", len(bars), dropped)
	}
	want := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	if !bars[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp: want %v, got %v", want, bars[0].Timestamp)
	}
	if bars[0].Symbol != "AAPL" || bars[0].Volume != 125000 {
		t.Fatalf("bar fields: %+v", bars[0])
	}
}

func TestParseBarsStringNumbers(t *testing.T) {
	raw := []RawBar{{
		Date: "2025-03-10 09:30:00",
		Open: "100.5", High: "101.2", Low: "100.1", Close: "100.9", Volume: "125000",
	}}
	bars, dropped := ParseBars("MSFT", raw)
	if dropped != 0 || len(bars) != 1 {
		t.Fatalf("string numerics must parse, got %d bars %d dropped", len(bars), dropped)
	}
	if bars[0].Open != 100.5 || bars[0].Volume != 125000 {
		t.Fatalf("coerced values wrong: %+v", bars[0])
	}
}

func TestParseBarsDropsBadRows(t *testing.T) {
	raw := []RawBar{
		{Date: "", Open: 1.0, High: 1.0, Low: 1.0, Close: 1.0, Volume: 1.0},
		{Date: "2025-03-10 09:30:00", High: 1.0, Low: 1.0, Close: 1.0, Volume: 1.0},                                // missing open
		{Date: "2025-03-10 09:35:00", Open: 100.0, High: 99.0, Low: 98.0, Close: 100.0, Volume: 10.0},             // high under the body
		{Date: "2025-03-10 09:40:00", Open: 100.0, High: 101.0, Low: 99.0, Close: 100.0, Volume: -5.0},            // negative volume
		{Date: "2025-03-10 09:45:00", Open: 100.0, High: 101.0, Low: 99.0, Close: 100.5, Volume: 1000.0},          // good
		{Date: "not a timestamp", Open: 100.0, High: 101.0, Low: 99.0, Close: 100.5, Volume: 1000.0},              // bad date
	}
	bars, dropped := ParseBars("AAPL", raw)
	if len(bars) != 1 || dropped != 5 {
		t.Fatalf("want 1 bar 5 dropped, got %d bars %d dropped", len(bars), dropped)
	}
}

func TestParseBarsFractionalVolume(t *testing.T) {
	raw := []RawBar{{Date: "2025-03-10 09:30:00", Open: 10.0, High: 11.0, Low: 9.0, Close: 10.5, Volume: 1234.7}}
	bars, dropped := ParseBars("GC=F", raw)
	if dropped != 0 || bars[0].Volume != 1234 {
		t.Fatalf("fractional volume must truncate, got %+v dropped=%d", bars, dropped)
	}
}

func TestParseTreasury(t *testing.T) {
	y, ok := ParseTreasury(RawTreasury{
		Date:   "2025-03-10",
		Year2:  4.6,
		Year10: "4.2",
	})
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if y.Year2 == nil || *y.Year2 != 4.6 {
		t.Fatalf("year2: got %v", y.Year2)
	}
	if y.Year10 == nil || *y.Year10 != 4.2 {
		t.Fatalf("year10 string must coerce: got %v", y.Year10)
	}
	if y.Year30 != nil {
		t.Fatalf("missing tenor must stay nil")
	}
	if y.Date.Hour() != 0 {
		t.Fatalf("date must be calendar date, got %v", y.Date)
	}
}

func TestParseTreasuryBadDate(t *testing.T) {
	if _, ok := ParseTreasury(RawTreasury{Date: "???"}); ok {
		t.Fatalf("unparsable date must drop the row")
	}
}

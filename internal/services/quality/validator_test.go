package quality

import (
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

var when = time.Date(2025, 3, 10, 9, 45, 0, 0, time.UTC)

func clean(symbol string, volume int64) models.Bar {
	return models.Bar{Symbol: symbol, Timestamp: when, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: volume}
}

func findCheck(t *testing.T, r *models.QualityReport, name string) models.CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q missing from report", name)
	return models.CheckResult{}
}

func TestValidateCleanBatch(t *testing.T) {
	r := Validate([]models.Bar{clean("AAPL", 1000), clean("MSFT", 2000)}, nil)
	if !r.Passed() {
		t.Fatalf("clean batch must pass: %+v", r.Checks)
	}
	if len(r.AllFlags()) != 0 {
		t.Fatalf("clean batch must produce no flags: %v", r.AllFlags())
	}
}

func TestValidateNonPositivePrice(t *testing.T) {
	bad := models.Bar{Symbol: "X", Timestamp: when, Open: -1, High: 101, Low: 99, Close: 100, Volume: 10}
	r := Validate([]models.Bar{bad}, nil)
	c := findCheck(t, r, "accuracy")
	if c.Passed {
		t.Fatalf("negative open must fail accuracy")
	}
	if len(c.Flags) != 1 || c.Flags[0].Kind != models.FlagNonPositivePrice {
		t.Fatalf("expected one non_positive_price flag, got %+v", c.Flags)
	}
	if r.Passed() {
		t.Fatalf("one failing category must fail the run")
	}
}

func TestValidateInvalidOHLC(t *testing.T) {
	cases := []models.Bar{
		{Symbol: "HI", Timestamp: when, Open: 100, High: 99.5, Low: 98, Close: 100, Volume: 10},
		{Symbol: "LO", Timestamp: when, Open: 100, High: 102, Low: 101, Close: 102, Volume: 10},
	}
	r := Validate(cases, nil)
	c := findCheck(t, r, "accuracy")
	if len(c.Flags) != 2 {
		t.Fatalf("expected 2 invalid_ohlc flags, got %+v", c.Flags)
	}
	for _, f := range c.Flags {
		if f.Kind != models.FlagInvalidOHLC {
			t.Fatalf("wrong flag kind: %+v", f)
		}
	}
}

func TestValidateNegativeVolume(t *testing.T) {
	r := Validate([]models.Bar{clean("A", -5), clean("B", 0)}, nil)
	c := findCheck(t, r, "volume")
	if c.Passed {
		t.Fatalf("negative volume must fail the volume check")
	}
	// Zero volume is a halted instrument, not an integrity error.
	if len(c.Flags) != 1 || c.Flags[0].Symbol != "A" {
		t.Fatalf("only the negative volume row must be flagged: %+v", c.Flags)
	}
}

func TestValidatePriceAnomaly(t *testing.T) {
	jump := models.Bar{Symbol: "J", Timestamp: when, Open: 100, High: 130, Low: 99, Close: 125, Volume: 10}
	drop := models.Bar{Symbol: "D", Timestamp: when, Open: 100, High: 101, Low: 70, Close: 75, Volume: 10}
	edge := models.Bar{Symbol: "E", Timestamp: when, Open: 100, High: 120, Low: 100, Close: 120, Volume: 10}
	r := Validate([]models.Bar{jump, drop, edge}, nil)
	c := findCheck(t, r, "price_anomalies")
	if len(c.Flags) != 2 {
		t.Fatalf("exactly 25%% and -25%% moves flagged, 20%% is not: %+v", c.Flags)
	}
	for _, f := range c.Flags {
		if f.Symbol == "E" {
			t.Fatalf("a move of exactly the threshold must not be flagged")
		}
	}
}

func TestValidateVolumeAnomalies(t *testing.T) {
	baselines := map[string]VolumeBaseline{
		"AAPL": {Mean: 1000, Stddev: 100},
	}
	spike := clean("AAPL", 1500)  // > 1000 + 3*100
	starve := clean("AAPL", 50)   // < 1000 / 10
	normal := clean("AAPL", 1200) // within band
	r := Validate([]models.Bar{spike, starve, normal}, baselines)
	c := findCheck(t, r, "volume_anomalies")
	if c.Vacuous {
		t.Fatalf("check must be measured when a baseline exists")
	}
	if len(c.Flags) != 2 {
		t.Fatalf("expected spike and starve flagged, got %+v", c.Flags)
	}
}

func TestValidateVolumeAnomaliesVacuousWithoutBaseline(t *testing.T) {
	r := Validate([]models.Bar{clean("NEW", 999999)}, nil)
	c := findCheck(t, r, "volume_anomalies")
	if !c.Passed || !c.Vacuous {
		t.Fatalf("no baseline means a vacuous pass, got %+v", c)
	}
	if !r.Passed() {
		t.Fatalf("vacuous categories must not fail the run")
	}
}

func TestValidateIndependentCategories(t *testing.T) {
	// One bar that trips accuracy must not suppress a different bar's
	// price anomaly finding.
	badPrice := models.Bar{Symbol: "BAD", Timestamp: when, Open: 0, High: 0, Low: 0, Close: 0, Volume: 10}
	anomaly := models.Bar{Symbol: "JMP", Timestamp: when, Open: 100, High: 140, Low: 99, Close: 135, Volume: 10}
	r := Validate([]models.Bar{badPrice, anomaly}, nil)
	if findCheck(t, r, "accuracy").Passed {
		t.Fatalf("accuracy must fail")
	}
	if findCheck(t, r, "price_anomalies").Passed {
		t.Fatalf("price anomaly must still be reported")
	}
	if len(r.AllFlags()) != 2 {
		t.Fatalf("expected 2 flags across categories, got %v", r.AllFlags())
	}
}

func TestValidateEmptyBatch(t *testing.T) {
	r := Validate(nil, nil)
	if !r.Passed() {
		t.Fatalf("empty batch must pass vacuously")
	}
	for _, c := range r.Checks {
		if !c.Vacuous {
			t.Fatalf("check %q must be vacuous on an empty batch", c.Name)
		}
	}
}

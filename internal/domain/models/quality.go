package models

import "time"

// FlagKind classifies a data-quality finding.
type FlagKind string

const (
	FlagInvalidOHLC       FlagKind = "invalid_ohlc"
	FlagNonPositivePrice  FlagKind = "non_positive_price"
	FlagNonPositiveVolume FlagKind = "non_positive_volume"
	FlagPriceAnomaly      FlagKind = "price_anomaly"
	FlagVolumeAnomaly     FlagKind = "volume_anomaly"
)

// QualityFlag records one offending row. Flags live only for the duration of
// a validation run; they are reported, not persisted.
type QualityFlag struct {
	Symbol    string
	Timestamp time.Time
	Kind      FlagKind
	Detail    string
}

// CheckResult is the outcome of one check category.
type CheckResult struct {
	Name    string
	Passed  bool
	Vacuous bool // passed because no applicable data existed
	Message string
	Flags   []QualityFlag
}

// QualityReport aggregates all check categories for one validation run.
type QualityReport struct {
	GeneratedAt time.Time
	Checks      []CheckResult
}

// Passed reports the conjunction of all check categories.
func (r *QualityReport) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Flags returns all flags across categories.
func (r *QualityReport) AllFlags() []QualityFlag {
	var out []QualityFlag
	for _, c := range r.Checks {
		out = append(out, c.Flags...)
	}
	return out
}

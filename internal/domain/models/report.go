package models

import "time"

// ClassCoverage summarizes ingestion for one asset class over a window.
type ClassCoverage struct {
	Records  int64      `json:"records"`
	Symbols  int        `json:"symbols"`
	Earliest *time.Time `json:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty"`
}

// SymbolReturn is one symbol's close-to-close return over the report window,
// in percent.
type SymbolReturn struct {
	Symbol    string  `json:"symbol"`
	ReturnPct float64 `json:"return_pct"`
}

// QualitySummary condenses a validation run for reporting.
type QualitySummary struct {
	OverallStatus   string   `json:"overall_status"` // PASS or FAIL
	ChecksPerformed int      `json:"checks_performed"`
	ChecksPassed    int      `json:"checks_passed"`
	Issues          []string `json:"issues,omitempty"`
}

// WeeklyReport is the operator-facing weekly rollup of ingestion coverage,
// market performance, data quality, and freshness.
type WeeklyReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	WeekStart   time.Time `json:"week_start"`
	WeekEnd     time.Time `json:"week_end"`

	Coverage map[AssetClass]ClassCoverage `json:"coverage"`

	TopStocks    []SymbolReturn `json:"top_stocks"`
	BottomStocks []SymbolReturn `json:"bottom_stocks"`
	Indexes      []SymbolReturn `json:"indexes"`

	Quality        QualitySummary `json:"quality"`
	FreshnessHours *float64       `json:"freshness_hours,omitempty"` // nil when no data exists
}

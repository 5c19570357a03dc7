// Package quality validates loaded bars before they are trusted by the
// transform stage. Checks run independently so one failing category never
// hides findings from another; the run passes only when every category does.
package quality

import (
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
)

// priceAnomalyPct is the absolute open-to-close move, in percent, above
// which a single bar is flagged as a price anomaly.
const priceAnomalyPct = 20.0

// VolumeBaseline holds a symbol's trailing 30-day volume statistics.
type VolumeBaseline struct {
	Mean   float64
	Stddev float64
}

// Validate runs all check categories over one batch of bars. baselines maps
// symbol to its trailing volume statistics; symbols without a baseline are
// skipped by the volume anomaly check, and if no symbol has one that check
// passes vacuously.
func Validate(bars []models.Bar, baselines map[string]VolumeBaseline) *models.QualityReport {
	return &models.QualityReport{
		GeneratedAt: time.Now().UTC(),
		Checks: []models.CheckResult{
			checkAccuracy(bars),
			checkVolume(bars),
			checkPriceAnomalies(bars),
			checkVolumeAnomalies(bars, baselines),
		},
	}
}

// checkAccuracy flags rows whose prices are non-positive or whose OHLC
// ordering is broken (high below the body or low above it).
func checkAccuracy(bars []models.Bar) models.CheckResult {
	res := models.CheckResult{Name: "accuracy", Passed: true, Message: "accuracy check passed"}
	if len(bars) == 0 {
		res.Vacuous = true
		return res
	}

	for _, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			res.Flags = append(res.Flags, models.QualityFlag{
				Symbol:    b.Symbol,
				Timestamp: b.Timestamp,
				Kind:      models.FlagNonPositivePrice,
				Detail:    fmt.Sprintf("o=%g h=%g l=%g c=%g", b.Open, b.High, b.Low, b.Close),
			})
			continue
		}
		if b.High < max3(b.Open, b.Close, b.Low) || b.Low > min3(b.Open, b.Close, b.High) {
			res.Flags = append(res.Flags, models.QualityFlag{
				Symbol:    b.Symbol,
				Timestamp: b.Timestamp,
				Kind:      models.FlagInvalidOHLC,
				Detail:    fmt.Sprintf("o=%g h=%g l=%g c=%g", b.Open, b.High, b.Low, b.Close),
			})
		}
	}
	if len(res.Flags) > 0 {
		res.Passed = false
		res.Message = fmt.Sprintf("found %d invalid price records", len(res.Flags))
	}
	return res
}

func checkVolume(bars []models.Bar) models.CheckResult {
	res := models.CheckResult{Name: "volume", Passed: true, Message: "volume check passed"}
	if len(bars) == 0 {
		res.Vacuous = true
		return res
	}

	for _, b := range bars {
		if b.Volume < 0 {
			res.Flags = append(res.Flags, models.QualityFlag{
				Symbol:    b.Symbol,
				Timestamp: b.Timestamp,
				Kind:      models.FlagNonPositiveVolume,
				Detail:    fmt.Sprintf("volume=%d", b.Volume),
			})
		}
	}
	if len(res.Flags) > 0 {
		res.Passed = false
		res.Message = fmt.Sprintf("found %d negative volume records", len(res.Flags))
	}
	return res
}

// checkPriceAnomalies flags intrabar moves wider than priceAnomalyPct.
// Bars with a zero open cannot be measured and are left to checkAccuracy.
func checkPriceAnomalies(bars []models.Bar) models.CheckResult {
	res := models.CheckResult{Name: "price_anomalies", Passed: true, Message: "price anomaly check passed"}
	if len(bars) == 0 {
		res.Vacuous = true
		return res
	}

	for _, b := range bars {
		if b.Open == 0 {
			continue
		}
		pct := (b.Close - b.Open) / b.Open * 100
		if pct > priceAnomalyPct || pct < -priceAnomalyPct {
			res.Flags = append(res.Flags, models.QualityFlag{
				Symbol:    b.Symbol,
				Timestamp: b.Timestamp,
				Kind:      models.FlagPriceAnomaly,
				Detail:    fmt.Sprintf("%.2f%% change", pct),
			})
		}
	}
	if len(res.Flags) > 0 {
		res.Passed = false
		res.Message = fmt.Sprintf("found %d price anomalies", len(res.Flags))
	}
	return res
}

// checkVolumeAnomalies flags volume more than three standard deviations
// above the symbol's trailing mean, or below a tenth of it.
func checkVolumeAnomalies(bars []models.Bar, baselines map[string]VolumeBaseline) models.CheckResult {
	res := models.CheckResult{Name: "volume_anomalies", Passed: true, Message: "volume anomaly check passed"}

	measured := false
	for _, b := range bars {
		base, ok := baselines[b.Symbol]
		if !ok || base.Mean <= 0 {
			continue
		}
		measured = true
		v := float64(b.Volume)
		if v > base.Mean+3*base.Stddev || v < base.Mean/10 {
			res.Flags = append(res.Flags, models.QualityFlag{
				Symbol:    b.Symbol,
				Timestamp: b.Timestamp,
				Kind:      models.FlagVolumeAnomaly,
				Detail:    fmt.Sprintf("volume=%d mean=%.0f stddev=%.0f", b.Volume, base.Mean, base.Stddev),
			})
		}
	}
	if !measured {
		res.Vacuous = true
		return res
	}
	if len(res.Flags) > 0 {
		res.Passed = false
		res.Message = fmt.Sprintf("found %d volume anomalies", len(res.Flags))
	}
	return res
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	rowsLoaded    *prometheus.CounterVec
	rowsDropped   *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastClose     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	qualityChecks *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		rowsLoaded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_rows_loaded_total",
				Help: "Total rows loaded into the warehouse per table",
			},
			[]string{"table", "symbol"},
		),
		rowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_rows_dropped_total",
				Help: "Total rows dropped per pipeline stage",
			},
			[]string{"stage"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastClose: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketpulse_last_close",
				Help: "Last loaded close price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_operation_duration_seconds",
				Help:    "Duration of pipeline operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		qualityChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_quality_checks_total",
				Help: "Data quality check outcomes per category",
			},
			[]string{"check", "result"},
		),
	}
}

// RecordRowsLoaded counts rows written to a warehouse table.
func (r *Recorder) RecordRowsLoaded(table, symbol string, n int) {
	r.rowsLoaded.WithLabelValues(table, symbol).Add(float64(n))
}

// RecordRowsDropped counts rows a pipeline stage refused.
func (r *Recorder) RecordRowsDropped(stage string, n int) {
	r.rowsDropped.WithLabelValues(stage).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastClose records the last loaded close for a symbol.
func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordQualityCheck counts one quality check outcome.
func (r *Recorder) RecordQualityCheck(check string, passed bool) {
	result := "pass"
	if !passed {
		result = "fail"
	}
	r.qualityChecks.WithLabelValues(check, result).Inc()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageResults *prometheus.CounterVec
	barsStored   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastForecast *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder whose collectors are registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		stageResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_stage_results_total",
				Help: "Pipeline stage outcomes per symbol",
			},
			[]string{"stage", "symbol", "result"},
		),
		barsStored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_bars_stored_total",
				Help: "Daily bars written to storage",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastForecast: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_forecast_close",
				Help: "Most recent one-step-ahead forecast close for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordStage records the outcome of one stage for one symbol.
func (r *Recorder) RecordStage(stage, symbol string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	r.stageResults.WithLabelValues(stage, symbol, result).Inc()
}

func (r *Recorder) RecordBarsStored(symbol string, n int) {
	r.barsStored.WithLabelValues(symbol).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastForecast(symbol string, price float64) {
	r.lastForecast.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordStage(string, string, bool)   {}
func (Nop) RecordBarsStored(string, int)       {}
func (Nop) RecordError(string)                 {}
func (Nop) RecordLastForecast(string, float64) {}
func (Nop) RecordLatency(string, float64)      {}

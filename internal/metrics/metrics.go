// Package metrics exposes screening counters over Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"VCPSentinel/internal/model"
)

// Ticker outcomes recorded by ObserveTicker.
const (
	OutcomeSignal   = "signal"
	OutcomeNoSignal = "no_signal"
	OutcomeError    = "error"
)

// Metrics groups the screener's collectors under one registry.
type Metrics struct {
	Registry *prometheus.Registry

	TickersScreened *prometheus.CounterVec
	TickerDuration  *prometheus.HistogramVec
	FilterPassed    *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	LastCandidates  prometheus.Gauge
}

// New registers the screener metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		TickersScreened: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_tickers_screened_total",
			Help: "Tickers screened, by mode and outcome",
		}, []string{"mode", "outcome"}),
		TickerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vcp_ticker_duration_seconds",
			Help:    "Time to fetch and screen one ticker",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"mode"}),
		FilterPassed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_filter_passed_total",
			Help: "Tickers passing each individual filter",
		}, []string{"filter"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vcp_runs_total",
			Help: "Completed screening runs, by mode",
		}, []string{"mode"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vcp_run_duration_seconds",
			Help:    "Wall time of a screening run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		LastCandidates: f.NewGauge(prometheus.GaugeOpts{
			Name: "vcp_last_run_candidates",
			Help: "Signals produced by the most recent run",
		}),
	}
}

// ObserveTicker records one finished ticker.
func (m *Metrics) ObserveTicker(r *model.ScreenResult) {
	if m == nil || r == nil {
		return
	}
	mode := string(r.Mode)
	outcome := OutcomeNoSignal
	switch {
	case r.Error != "":
		outcome = OutcomeError
	case r.Signal:
		outcome = OutcomeSignal
	}
	m.TickersScreened.WithLabelValues(mode, outcome).Inc()
	m.TickerDuration.WithLabelValues(mode).Observe(r.Elapsed.Seconds())
	if r.Error != "" {
		return
	}
	for name, ok := range map[string]bool{
		"trend":    r.Trend.Passed,
		"volume":   r.Volume.Passed,
		"position": r.Position.Passed,
	} {
		if ok {
			m.FilterPassed.WithLabelValues(name).Inc()
		}
	}
	if r.Mode == model.ModeFull {
		if r.Pivot.Good {
			m.FilterPassed.WithLabelValues("pivot").Inc()
		}
		if !r.CorrectionDeep {
			m.FilterPassed.WithLabelValues("correction").Inc()
		}
		if r.DemandDry.IsDry {
			m.FilterPassed.WithLabelValues("demand_dry").Inc()
		}
	}
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(mode model.ScreenMode, elapsed time.Duration, candidates int) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(string(mode)).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.LastCandidates.Set(float64(candidates))
}

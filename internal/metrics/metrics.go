// Package metrics exposes Prometheus instrumentation for the scoring pipeline.
// The engine itself stays metric-free; callers observe results at the boundary.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketweave/confluence/internal/composite"
)

// Registry holds all confluence Prometheus collectors on a private registry, so
// tests and embedders never collide with the global default.
type Registry struct {
	Evaluations  *prometheus.CounterVec
	EvalDuration prometheus.Histogram
	Divergences  *prometheus.CounterVec
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter

	reg *prometheus.Registry
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confluence_evaluations_total",
				Help: "Scoring passes by result status",
			},
			[]string{"status"},
		),
		EvalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "confluence_evaluation_duration_seconds",
				Help:    "Wall time of one scoring pass",
				Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
		),
		Divergences: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confluence_divergences_total",
				Help: "Cross-timeframe divergences detected by direction",
			},
			[]string{"direction"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "confluence_cache_hits_total",
				Help: "Result cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "confluence_cache_misses_total",
				Help: "Result cache misses",
			},
		),
		reg: prometheus.NewRegistry(),
	}

	r.reg.MustRegister(r.Evaluations, r.EvalDuration, r.Divergences, r.CacheHits, r.CacheMisses)
	return r
}

// ObserveResult records one scoring pass.
func (r *Registry) ObserveResult(res *composite.Result) {
	if res == nil {
		return
	}
	r.Evaluations.WithLabelValues(string(res.Meta.Status)).Inc()
	r.EvalDuration.Observe(res.Meta.CalculationTimeMS / 1000)
	if n := len(res.Divergences.Bullish); n > 0 {
		r.Divergences.WithLabelValues("bullish").Add(float64(n))
	}
	if n := len(res.Divergences.Bearish); n > 0 {
		r.Divergences.WithLabelValues("bearish").Add(float64(n))
	}
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketweave/confluence/internal/composite"
	"github.com/marketweave/confluence/internal/divergence"
)

func findFamily(t *testing.T, reg *Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestObserveResult(t *testing.T) {
	reg := NewRegistry()

	reg.ObserveResult(&composite.Result{
		Meta: composite.Meta{Status: composite.StatusSuccess, CalculationTimeMS: 2.5},
		Divergences: divergence.Result{
			Bullish: []divergence.Event{{Indicator: "rsi"}, {Indicator: "macd"}},
			Bearish: []divergence.Event{{Indicator: "cci"}},
		},
	})
	reg.ObserveResult(&composite.Result{
		Meta: composite.Meta{Status: composite.StatusError},
	})
	reg.ObserveResult(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Evaluations.WithLabelValues("SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Evaluations.WithLabelValues("ERROR")))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.Divergences.WithLabelValues("bullish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Divergences.WithLabelValues("bearish")))

	hist := findFamily(t, reg, "confluence_evaluation_duration_seconds")
	require.NotNil(t, hist)
	require.Len(t, hist.Metric, 1)
	assert.Equal(t, uint64(2), hist.Metric[0].GetHistogram().GetSampleCount())
}

func TestCacheCounters(t *testing.T) {
	reg := NewRegistry()
	reg.CacheHits.Inc()
	reg.CacheHits.Inc()
	reg.CacheMisses.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.CacheMisses))
}

func TestHandlerServesExposition(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveResult(&composite.Result{Meta: composite.Meta{Status: composite.StatusSuccess}})

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "confluence_evaluations_total")
}

func TestRegistriesAreIsolated(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	a.CacheHits.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheHits))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHits))
}

package composite

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketweave/confluence/internal/indicator"
	"github.com/marketweave/confluence/internal/market"
	"github.com/marketweave/confluence/internal/score"
	"github.com/marketweave/confluence/internal/weights"
)

func engineSeries(n int, step time.Duration) market.Series {
	start := time.Unix(1700000000, 0)
	s := make(market.Series, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += 0.2 + math.Sin(float64(i)/5)*1.2
		s[i] = market.Candle{
			Timestamp: start.Add(time.Duration(i) * step),
			Open:      price - 0.1,
			High:      price + 0.8,
			Low:       price - 0.8,
			Close:     price,
			Volume:    500 + float64(i),
		}
	}
	return s
}

func ptr(v float64) *float64 { return &v }

func testSnapshot() *market.Snapshot {
	return &market.Snapshot{
		Symbol: "BTCUSDT",
		OHLCV: map[market.Timeframe]market.Series{
			market.TimeframeBase: engineSeries(60, time.Minute),
			market.TimeframeLTF:  engineSeries(50, 5*time.Minute),
			market.TimeframeMTF:  engineSeries(40, 30*time.Minute),
		},
		Sentiment: &market.Sentiment{
			FundingRate:       ptr(-0.0001),
			FundingHistory:    []float64{0.0001, -0.0001, 0.0002, -0.0002},
			LongAccounts:      ptr(62),
			ShortAccounts:     ptr(38),
			LongLiquidations:  ptr(150),
			ShortLiquidations: ptr(250),
			RealizedVolatility: ptr(42),
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Params{})
	require.NoError(t, err)
	return e
}

func TestNewEngineZeroSumWeights(t *testing.T) {
	overrides := make(map[string]float64)
	for k := range weights.DefaultComponents() {
		overrides[k] = 0
	}
	_, err := NewEngine(Params{ComponentOverrides: overrides})
	require.ErrorIs(t, err, weights.ErrZeroWeightSum)
}

func TestEvaluateSuccess(t *testing.T) {
	e := newTestEngine(t)
	res := e.Evaluate(testSnapshot())

	require.Equal(t, StatusSuccess, res.Meta.Status)
	assert.Equal(t, "BTCUSDT", res.Symbol)
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 100.0)
	assert.Empty(t, res.Meta.Error)
	assert.NotEmpty(t, res.Interpretation)
	assert.Positive(t, res.Meta.TimestampMS)
}

func TestEvaluateComponentCoverage(t *testing.T) {
	e := newTestEngine(t)
	res := e.Evaluate(testSnapshot())

	for _, name := range indicator.TechnicalNames {
		assert.Contains(t, res.Components, name)
	}
	for _, name := range score.SentimentNames {
		assert.Contains(t, res.Components, name)
	}
	for name, s := range res.Components {
		assert.GreaterOrEqual(t, s, 0.0, name)
		assert.LessOrEqual(t, s, 100.0, name)
	}
}

func TestEvaluateAbsentTimeframesStayAbsent(t *testing.T) {
	e := newTestEngine(t)
	res := e.Evaluate(testSnapshot())

	assert.Contains(t, res.TimeframeScores, market.TimeframeBase)
	assert.Contains(t, res.TimeframeScores, market.TimeframeLTF)
	assert.Contains(t, res.TimeframeScores, market.TimeframeMTF)
	assert.NotContains(t, res.TimeframeScores, market.TimeframeHTF,
		"a timeframe that was never supplied must not appear with fabricated scores")
	assert.Equal(t, StatusSuccess, res.Meta.Status, "partial timeframe coverage is not an error")
}

func TestEvaluateBaseOnly(t *testing.T) {
	e := newTestEngine(t)
	snap := &market.Snapshot{
		Symbol: "SOLUSDT",
		OHLCV: map[market.Timeframe]market.Series{
			market.TimeframeBase: engineSeries(60, time.Minute),
		},
	}
	res := e.Evaluate(snap)

	require.Equal(t, StatusSuccess, res.Meta.Status)
	assert.Len(t, res.TimeframeScores, 1)
	// No sentiment payload at all: every sentiment component is neutral.
	for _, name := range score.SentimentNames {
		assert.Equal(t, score.Neutral, res.Components[name], name)
	}
}

func TestEvaluateDeterministicModuloMetadata(t *testing.T) {
	e := newTestEngine(t)
	snap := testSnapshot()

	a := e.Evaluate(snap)
	b := e.Evaluate(snap)

	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Components, b.Components)
	assert.Equal(t, a.TimeframeScores, b.TimeframeScores)
	assert.Equal(t, a.Signals, b.Signals)
	assert.Equal(t, a.Interpretation, b.Interpretation)
}

func TestEvaluateValidationFailure(t *testing.T) {
	e := newTestEngine(t)

	res := e.Evaluate(&market.Snapshot{Symbol: "BTCUSDT"})
	require.Equal(t, StatusError, res.Meta.Status)
	assert.Equal(t, 50.0, res.Score)
	assert.NotEmpty(t, res.Meta.Error)
	assert.Empty(t, res.Components)
	assert.Contains(t, res.Interpretation, "snapshot rejected")

	res = e.Evaluate(nil)
	require.Equal(t, StatusError, res.Meta.Status)
	assert.Empty(t, res.Symbol)
}

func TestEvaluateShortBaseRejected(t *testing.T) {
	e := newTestEngine(t)
	snap := &market.Snapshot{
		Symbol: "BTCUSDT",
		OHLCV: map[market.Timeframe]market.Series{
			market.TimeframeBase: engineSeries(30, time.Minute),
		},
	}
	assert.Equal(t, StatusError, e.Evaluate(snap).Meta.Status)
}

func TestEvaluateCustomMinBaseBars(t *testing.T) {
	e, err := NewEngine(Params{MinBaseBars: 20})
	require.NoError(t, err)
	snap := &market.Snapshot{
		Symbol: "BTCUSDT",
		OHLCV: map[market.Timeframe]market.Series{
			market.TimeframeBase: engineSeries(30, time.Minute),
		},
	}
	assert.Equal(t, StatusSuccess, e.Evaluate(snap).Meta.Status)
}

func TestEvaluateShortNonBaseScoresNeutral(t *testing.T) {
	e := newTestEngine(t)
	snap := testSnapshot()
	snap.OHLCV[market.TimeframeHTF] = engineSeries(3, 4*time.Hour)

	res := e.Evaluate(snap)
	require.Equal(t, StatusSuccess, res.Meta.Status)
	htf := res.TimeframeScores[market.TimeframeHTF]
	require.NotNil(t, htf)
	for name, s := range htf {
		assert.Equal(t, score.Neutral, s, "indicator %s on a 3-bar series", name)
	}
}

func TestEvaluateNonBaseInsideIndicatorWindowScoresNeutral(t *testing.T) {
	// Series long enough for the scaled per-timeframe minimums but shorter
	// than the indicator computation windows. A 10-bar htf view used to crash
	// inside the RSI computation; it must score neutral instead.
	e := newTestEngine(t)
	for _, bars := range []int{8, 10, 13} {
		snap := &market.Snapshot{
			Symbol: "BTCUSDT",
			OHLCV: map[market.Timeframe]market.Series{
				market.TimeframeBase: engineSeries(120, time.Minute),
				market.TimeframeLTF:  engineSeries(60, 5*time.Minute),
				market.TimeframeHTF:  engineSeries(bars, 4*time.Hour),
			},
		}

		res := e.Evaluate(snap)
		require.Equal(t, StatusSuccess, res.Meta.Status, "%d htf bars", bars)
		htf := res.TimeframeScores[market.TimeframeHTF]
		require.NotNil(t, htf, "%d htf bars", bars)
		for name, s := range htf {
			assert.Equal(t, score.Neutral, s, "indicator %s on %d htf bars", name, bars)
		}
	}
}

func TestEngineWeightAccessors(t *testing.T) {
	e := newTestEngine(t)
	assert.InDelta(t, 1.0, e.ComponentWeights().Sum(), 1e-9)
	assert.InDelta(t, 1.0, e.TimeframeWeights().Sum(), 1e-9)
	assert.False(t, e.ComponentWeights().Has(weights.KeyFundingRateVol))
}

func TestEngineComponentOverride(t *testing.T) {
	e, err := NewEngine(Params{
		ComponentOverrides: map[string]float64{weights.KeyRSI: 0.5},
	})
	require.NoError(t, err)
	base, err := NewEngine(Params{})
	require.NoError(t, err)
	assert.Greater(t, e.ComponentWeights().Get(weights.KeyRSI), base.ComponentWeights().Get(weights.KeyRSI))
}

package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsSumToOne(t *testing.T) {
	w, err := Resolve(DefaultComponents(), nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	assert.Equal(t, 10, w.Len(), "funding volatility folds into funding_rate")
}

func TestResolveFoldsFundingVolatility(t *testing.T) {
	w, err := Resolve(DefaultComponents(), nil, nil)
	require.NoError(t, err)

	assert.False(t, w.Has(KeyFundingRateVol))
	// 0.10 + 0.04 from the default layer, total already 1.0.
	assert.InDelta(t, 0.14, w.Get(KeyFundingRate), 1e-9)
}

func TestResolveLayerPriority(t *testing.T) {
	defaults := map[string]float64{"a": 0.5, "b": 0.5}
	component := map[string]float64{"a": 0.2}
	override := map[string]float64{"b": 0.2}

	w, err := Resolve(defaults, component, override)
	require.NoError(t, err)

	// a=0.2 (component), b=0.2 (override), normalized to 0.5 each.
	assert.InDelta(t, 0.5, w.Get("a"), 1e-9)
	assert.InDelta(t, 0.5, w.Get("b"), 1e-9)
}

func TestResolveOverrideBeatsComponent(t *testing.T) {
	defaults := map[string]float64{"a": 1, "b": 1}
	component := map[string]float64{"a": 3}
	override := map[string]float64{"a": 1}

	w, err := Resolve(defaults, component, override)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w.Get("a"), 1e-9)
}

func TestResolveNormalizesArbitraryScale(t *testing.T) {
	w, err := Resolve(map[string]float64{"a": 2, "b": 6}, nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, w.Get("a"), 1e-9)
	assert.InDelta(t, 0.75, w.Get("b"), 1e-9)
	assert.InDelta(t, 1.0, w.Sum(), 1e-9)
}

func TestResolveZeroSum(t *testing.T) {
	_, err := Resolve(map[string]float64{"a": 0, "b": 0}, nil, nil)
	require.ErrorIs(t, err, ErrZeroWeightSum)
}

func TestResolveRejectsNegativeAndNonFinite(t *testing.T) {
	_, err := Resolve(map[string]float64{"a": -0.1, "b": 0.5}, nil, nil)
	require.Error(t, err)

	nan := 0.0
	nan = nan / nan
	_, err = Resolve(map[string]float64{"a": nan}, nil, nil)
	require.Error(t, err)
}

func TestResolveTimeframes(t *testing.T) {
	w, err := ResolveTimeframes(DefaultTimeframes(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.40, w.Get("base"), 1e-9)
	assert.InDelta(t, 0.10, w.Get("htf"), 1e-9)

	w, err = ResolveTimeframes(DefaultTimeframes(), map[string]float64{"base": 0.7, "ltf": 0.1, "mtf": 0.1, "htf": 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, w.Get("base"), 1e-9)
}

func TestComponentWeightsImmutable(t *testing.T) {
	w, err := Resolve(map[string]float64{"a": 1, "b": 1}, nil, nil)
	require.NoError(t, err)

	m := w.Map()
	m["a"] = 99

	assert.InDelta(t, 0.5, w.Get("a"), 1e-9, "Map must return a copy")
}

func TestComponentWeightsKeysSorted(t *testing.T) {
	w, err := Resolve(map[string]float64{"c": 1, "a": 1, "b": 1}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, w.Keys())
}

func TestComponentWeightsAbsentKey(t *testing.T) {
	w, err := Resolve(map[string]float64{"a": 1}, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, w.Get("missing"))
	assert.False(t, w.Has("missing"))
}

package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyOverallThresholds(t *testing.T) {
	cases := []struct {
		overall  float64
		signal   Type
		strength Strength
	}{
		{80, Buy, Strong},
		{75, Buy, Strong},
		{65, Buy, Moderate},
		{60, Buy, Moderate},
		{20, Sell, Strong},
		{25, Sell, Strong},
		{30, Sell, Moderate},
		{40, Sell, Moderate},
	}
	for _, tc := range cases {
		got := Classify(tc.overall, nil)
		require.Len(t, got, 1, "overall %.0f", tc.overall)
		assert.Equal(t, tc.signal, got[0].Signal)
		assert.Equal(t, tc.strength, got[0].Strength)
		assert.Greater(t, got[0].Confidence, 0.0)
		assert.LessOrEqual(t, got[0].Confidence, 0.95)
	}
}

func TestClassifyNeutralRange(t *testing.T) {
	for _, overall := range []float64{41, 50, 59.9} {
		assert.Empty(t, Classify(overall, nil), "overall %.1f", overall)
	}
}

func TestClassifyConfidenceCaps(t *testing.T) {
	got := Classify(99, nil)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.95, got[0].Confidence, 1e-9)

	got = Classify(62, nil)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.62, got[0].Confidence, 1e-9)
}

func TestClassifyComponentRules(t *testing.T) {
	got := Classify(50, map[string]float64{"funding_rate": 85})
	require.Len(t, got, 1)
	assert.Equal(t, Buy, got[0].Signal)
	assert.Equal(t, Weak, got[0].Strength)
	assert.Equal(t, "funding_rate", got[0].Component)

	got = Classify(50, map[string]float64{"liquidations": 20})
	require.Len(t, got, 1)
	assert.Equal(t, Sell, got[0].Signal)
	assert.Equal(t, Moderate, got[0].Strength)
}

func TestClassifyMergesSameDirection(t *testing.T) {
	got := Classify(65, map[string]float64{"funding_rate": 85})
	require.Len(t, got, 1, "two buy signals collapse into one")

	merged := got[0]
	assert.Equal(t, Buy, merged.Signal)
	assert.Equal(t, Moderate, merged.Strength, "strongest strength wins")
	// avg(0.65, 0.6) + 0.05 agreement boost
	assert.InDelta(t, 0.675, merged.Confidence, 1e-9)
	assert.Contains(t, merged.Reason, "; ")
}

func TestClassifyOpposingSignalsBothSurvive(t *testing.T) {
	// Bearish overall with bullish liquidation pressure: both directions report.
	got := Classify(30, map[string]float64{"liquidations": 80})
	require.Len(t, got, 2)
	assert.Equal(t, Buy, got[0].Signal)
	assert.Equal(t, Sell, got[1].Signal)
}

func TestMergeConfidenceCap(t *testing.T) {
	merged := merge([]Signal{
		{Signal: Buy, Strength: Strong, Confidence: 0.95},
		{Signal: Buy, Strength: Weak, Confidence: 0.95},
	})
	require.Len(t, merged, 1)
	assert.InDelta(t, 0.95, merged[0].Confidence, 1e-9)
	assert.Equal(t, Strong, merged[0].Strength)
}

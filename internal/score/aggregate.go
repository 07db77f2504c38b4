package score

import (
	"math"

	"github.com/marketweave/confluence/internal/market"
	"github.com/marketweave/confluence/internal/weights"
)

// Aggregator combines one indicator's per-timeframe scores into a single
// component score using normalized timeframe weights. Absent timeframes are
// skipped without renormalizing: a symbol missing its higher timeframe simply
// loses that slice of conviction rather than inflating the rest.
type Aggregator struct {
	tf weights.ComponentWeights
}

// NewAggregator builds an aggregator from resolved timeframe weights.
func NewAggregator(tf weights.ComponentWeights) *Aggregator {
	return &Aggregator{tf: tf}
}

// Combine returns the weighted sum of the valid per-timeframe scores. With zero
// valid timeframes it returns exactly the neutral score instead of dividing by
// zero.
func (a *Aggregator) Combine(scores map[market.Timeframe]float64) float64 {
	total := 0.0
	valid := 0
	for tf, s := range scores {
		if !tf.Valid() || math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		total += Clamp(s) * a.tf.Get(string(tf))
		valid++
	}
	if valid == 0 {
		return Neutral
	}
	return Clamp(total)
}

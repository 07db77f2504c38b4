package composite

import (
	"math"

	"github.com/marketweave/confluence/internal/score"
	"github.com/marketweave/confluence/internal/weights"
)

// Combine applies divergence adjustments to the component scores and collapses
// them into one weighted composite. The arithmetic is deterministic: no clock, no
// state, same inputs same outputs.
//
// Components with no adjustment pass through unchanged; NaN component scores are
// treated as neutral before adjusting. The composite is the weighted mean over
// the components actually present, so a partial component set does not drag the
// score toward zero.
func Combine(components, adjustments map[string]float64, w weights.ComponentWeights) (float64, map[string]float64) {
	adjusted := make(map[string]float64, len(components))

	weightedSum := 0.0
	weightTotal := 0.0
	for name, raw := range components {
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			raw = score.Neutral
		}
		adj := score.Clamp(raw + adjustments[name])
		adjusted[name] = adj

		wgt := w.Get(name)
		weightedSum += adj * wgt
		weightTotal += wgt
	}

	if weightTotal == 0 {
		return score.Neutral, adjusted
	}
	return score.Clamp(weightedSum / weightTotal), adjusted
}

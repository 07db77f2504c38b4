// Package score maps raw indicator readings onto 0-100 confluence scores and
// combines them across timeframes. Every function here is pure: identical inputs
// produce identical outputs, all results are clamped to [0,100], and anything
// indeterminate collapses to the neutral midpoint instead of propagating.
package score

import "math"

// Neutral is the defined fallback for missing, NaN, or failed computations.
const Neutral = 50.0

// Outcome is one indicator's scoring result: the score, the calculation trace
// behind it, and whether the indicator fell back to neutral for lack of data.
// Insufficient data is a value, not an error; the aggregator applies the neutral
// policy explicitly instead of catching anything.
type Outcome struct {
	Score        float64 `json:"score"`
	Insufficient bool    `json:"insufficient,omitempty"`
	Trace        Trace   `json:"trace,omitempty"`
}

// InsufficientData builds the neutral outcome for an indicator that lacked the
// required history.
func InsufficientData(have, need float64) Outcome {
	var t Trace
	t.add("insufficient_data", Neutral, map[string]float64{"have": have, "need": need})
	return Outcome{Score: Neutral, Insufficient: true, Trace: t}
}

// Clamp bounds a score to [0,100]; NaN and Inf collapse to neutral.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Neutral
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Sigmoid sharpens a 0-100 score around the neutral midpoint:
//
//	f(x) = 100 / (1 + exp(-((x-50)/50)/sensitivity))
//
// Lower sensitivity means a steeper curve. A non-positive sensitivity disables
// the transform and returns the clamped input unchanged.
func Sigmoid(x, sensitivity float64) float64 {
	if sensitivity <= 0 {
		return Clamp(x)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Neutral
	}
	return 100 / (1 + math.Exp(-((x-50)/50)/sensitivity))
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		sum += v
	}
	return sum / float64(len(values)), true
}

func stddev(values []float64) (float64, bool) {
	m, ok := mean(values)
	if !ok || len(values) < 2 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values))), true
}

// capped returns sign(v) * min(|v|*scale, cap), the magnitude term shared by the
// MACD-family formulas.
func capped(v, scale, max float64) float64 {
	term := math.Abs(v) * scale
	if term > max {
		term = max
	}
	if v < 0 {
		return -term
	}
	return term
}

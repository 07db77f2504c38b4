package score

import (
	"math"

	"github.com/marketweave/confluence/internal/indicator"
)

// RSI scores a relative strength reading. Overbought readings fall from 50 toward
// 0, oversold readings rise toward 100, and the neutral band tilts gently with the
// distance from 50.
func RSI(v indicator.RSIValue) Outcome {
	var t Trace
	rsi := v.Value
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		t.add("non_finite_input", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}

	var score float64
	switch {
	case rsi > 70:
		score = math.Max(0, 50-((rsi-70)/30)*50)
		t.add("overbought", score, map[string]float64{"rsi": rsi})
	case rsi < 30:
		score = math.Min(100, 50+((30-rsi)/30)*50)
		t.add("oversold", score, map[string]float64{"rsi": rsi})
	default:
		score = 50 + ((rsi-50)/20)*25
		t.add("neutral_band", score, map[string]float64{"rsi": rsi})
	}

	score = Clamp(score)
	t.add("clamp", score, nil)
	return Outcome{Score: score, Trace: t}
}

// MACD scores the MACD line against its signal line: a capped magnitude term for
// which side of the signal line we are on, a capped histogram trend term against
// the recent histogram mean, and flat bonuses on edge-triggered signal-line and
// zero-line crossovers.
func MACD(v indicator.MACDValue) Outcome {
	var t Trace
	score := Neutral

	magnitude := math.Min(math.Abs(v.Value)*5, 20)
	switch {
	case v.Value > v.Signal:
		score += magnitude
	case v.Value < v.Signal:
		score -= magnitude
	}
	t.add("signal_position", score, map[string]float64{"macd": v.Value, "signal": v.Signal})

	if histMean, ok := mean(v.HistTail); ok {
		score += capped(v.Hist-histMean, 10, 20)
		t.add("hist_trend", score, map[string]float64{"hist": v.Hist, "hist_mean": histMean})
	}

	// Crossovers compare the current bar against the immediately previous bar only.
	if crossedUp(v.PrevValue-v.PrevSignal, v.Value-v.Signal) {
		score += 15
		t.add("signal_cross_up", score, nil)
	} else if crossedDown(v.PrevValue-v.PrevSignal, v.Value-v.Signal) {
		score -= 15
		t.add("signal_cross_down", score, nil)
	}
	if crossedUp(v.PrevValue, v.Value) {
		score += 20
		t.add("zero_cross_up", score, nil)
	} else if crossedDown(v.PrevValue, v.Value) {
		score -= 20
		t.add("zero_cross_down", score, nil)
	}

	score = Clamp(score)
	t.add("clamp", score, nil)
	return Outcome{Score: score, Trace: t}
}

// AwesomeOscillator scores the 5/34 median-price SMA spread with the same
// start-at-50 pattern as MACD: capped magnitude for the zero-line side, capped
// trend against the recent mean, flat bonus on a zero-line cross.
func AwesomeOscillator(v indicator.AOValue) Outcome {
	var t Trace
	score := Neutral

	score += capped(v.Value, 5, 20)
	t.add("zero_position", score, map[string]float64{"ao": v.Value})

	if tailMean, ok := mean(v.Tail); ok {
		score += capped(v.Value-tailMean, 10, 20)
		t.add("trend", score, map[string]float64{"ao_mean": tailMean})
	}

	if crossedUp(v.Prev, v.Value) {
		score += 20
		t.add("zero_cross_up", score, nil)
	} else if crossedDown(v.Prev, v.Value) {
		score -= 20
		t.add("zero_cross_down", score, nil)
	}

	score = Clamp(score)
	t.add("clamp", score, nil)
	return Outcome{Score: score, Trace: t}
}

// WilliamsR linearly remaps Williams %R from [-100, 0] onto [0, 100].
func WilliamsR(v indicator.WilliamsRValue) Outcome {
	var t Trace
	score := Clamp(100 + v.Value)
	t.add("remap", score, map[string]float64{"williams_r": v.Value})
	return Outcome{Score: score, Trace: t}
}

// ATR scores the relative volatility deviation: percent distance of the current
// ATR from its trailing mean, with the shared sign-magnitude and trend pattern.
func ATR(v indicator.ATRValue) Outcome {
	var t Trace
	score := Neutral

	score += capped(v.Deviation, 5, 20)
	t.add("deviation", score, map[string]float64{"atr_dev_pct": v.Deviation})

	if tailMean, ok := mean(v.DevTail); ok {
		score += capped(v.Deviation-tailMean, 10, 20)
		t.add("trend", score, map[string]float64{"dev_mean": tailMean})
	}

	score = Clamp(score)
	t.add("clamp", score, nil)
	return Outcome{Score: score, Trace: t}
}

// cciScale normalizes CCI into the shared magnitude pattern: +-100 band readings
// map to the +-4 range where the x5 term saturates at the 20-point cap.
const cciScale = 25.0

// CCI scores the commodity channel index on its normalized value.
func CCI(v indicator.CCIValue) Outcome {
	var t Trace
	score := Neutral

	norm := v.Value / cciScale
	score += capped(norm, 5, 20)
	t.add("magnitude", score, map[string]float64{"cci": v.Value, "normalized": norm})

	if tailMean, ok := mean(v.Tail); ok {
		score += capped(norm-tailMean/cciScale, 10, 20)
		t.add("trend", score, map[string]float64{"cci_mean": tailMean})
	}

	score = Clamp(score)
	t.add("clamp", score, nil)
	return Outcome{Score: score, Trace: t}
}

// crossedUp reports an edge-triggered move from at-or-below zero to above zero.
func crossedUp(prev, cur float64) bool {
	return prev <= 0 && cur > 0
}

func crossedDown(prev, cur float64) bool {
	return prev >= 0 && cur < 0
}

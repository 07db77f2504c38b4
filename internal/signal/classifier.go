// Package signal derives discrete trading signals from a composite confluence
// score and its per-component breakdown.
package signal

import (
	"math"
	"strings"
)

// Type is the signal direction.
type Type string

const (
	Buy  Type = "buy"
	Sell Type = "sell"
)

// Strength grades a signal.
type Strength string

const (
	Strong   Strength = "strong"
	Moderate Strength = "moderate"
	Weak     Strength = "weak"
)

var strengthRank = map[Strength]int{Weak: 1, Moderate: 2, Strong: 3}

// Signal is one classified trading signal. Component is set for signals fired by
// a single component rule rather than the overall score.
type Signal struct {
	Signal     Type     `json:"signal"`
	Strength   Strength `json:"strength"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	Component  string   `json:"component,omitempty"`
}

// Classify applies the overall-score thresholds and the component-specific rules,
// then merges same-direction signals into one. It never returns conflicting
// duplicates for the same direction.
func Classify(overall float64, components map[string]float64) []Signal {
	var raw []Signal

	switch {
	case overall >= 75:
		raw = append(raw, Signal{
			Signal: Buy, Strength: Strong,
			Confidence: math.Min(overall/100, 0.95),
			Reason:     "strong multi-timeframe confluence",
		})
	case overall >= 60:
		raw = append(raw, Signal{
			Signal: Buy, Strength: Moderate,
			Confidence: math.Min(overall/100, 0.8),
			Reason:     "bullish confluence",
		})
	case overall <= 25:
		raw = append(raw, Signal{
			Signal: Sell, Strength: Strong,
			Confidence: math.Min((100-overall)/100, 0.95),
			Reason:     "strong bearish confluence",
		})
	case overall <= 40:
		raw = append(raw, Signal{
			Signal: Sell, Strength: Moderate,
			Confidence: math.Min((100-overall)/100, 0.8),
			Reason:     "bearish confluence",
		})
	}

	raw = append(raw, componentSignals(components)...)
	return merge(raw)
}

// componentSignals fires the per-component rules independently of the overall
// score.
func componentSignals(components map[string]float64) []Signal {
	var out []Signal

	if s, ok := components["funding_rate"]; ok {
		switch {
		case s >= 80:
			out = append(out, Signal{
				Signal: Buy, Strength: Weak, Confidence: 0.6,
				Reason: "funding favors longs", Component: "funding_rate",
			})
		case s <= 20:
			out = append(out, Signal{
				Signal: Sell, Strength: Weak, Confidence: 0.6,
				Reason: "funding favors shorts", Component: "funding_rate",
			})
		}
	}

	if s, ok := components["liquidations"]; ok {
		switch {
		case s >= 75:
			out = append(out, Signal{
				Signal: Buy, Strength: Moderate, Confidence: 0.65,
				Reason: "short liquidations dominating", Component: "liquidations",
			})
		case s <= 25:
			out = append(out, Signal{
				Signal: Sell, Strength: Moderate, Confidence: 0.65,
				Reason: "long liquidations dominating", Component: "liquidations",
			})
		}
	}

	return out
}

// merge collapses same-direction signals into one: strongest strength wins, the
// confidences are averaged with a small agreement boost capped at 0.95, and the
// reasons are concatenated.
func merge(signals []Signal) []Signal {
	if len(signals) <= 1 {
		return signals
	}

	byType := map[Type][]Signal{}
	for _, s := range signals {
		byType[s.Signal] = append(byType[s.Signal], s)
	}

	var out []Signal
	for _, typ := range []Type{Buy, Sell} {
		group := byType[typ]
		if len(group) == 0 {
			continue
		}
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}

		merged := Signal{Signal: typ, Strength: Weak}
		confSum := 0.0
		reasons := make([]string, 0, len(group))
		for _, s := range group {
			if strengthRank[s.Strength] > strengthRank[merged.Strength] {
				merged.Strength = s.Strength
			}
			confSum += s.Confidence
			reasons = append(reasons, s.Reason)
		}
		merged.Confidence = math.Min(confSum/float64(len(group))+0.05, 0.95)
		merged.Reason = strings.Join(reasons, "; ")
		out = append(out, merged)
	}
	return out
}

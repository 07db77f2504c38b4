// Package weights resolves and normalizes the component and timeframe weight maps
// used by the confluence scorer. Weights are layered from three sources in priority
// order defaults < per-component config < confluence override, then normalized so
// that the present entries sum to exactly 1.0. The resolved set is an immutable
// value: construction returns a new ComponentWeights, nothing mutates in place.
package weights

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrZeroWeightSum is the one scoring error that must reach the caller: a weight
// map summing to zero means the configuration is broken, not the market data.
var ErrZeroWeightSum = errors.New("weight map sums to zero")

// Component weight keys. The two funding keys are configuration-surface only: they
// fold into a single internal funding_rate weight before normalization.
const (
	KeyRSI               = "rsi"
	KeyMACD              = "macd"
	KeyAwesomeOscillator = "awesome_oscillator"
	KeyWilliamsR         = "williams_r"
	KeyATR               = "atr"
	KeyCCI               = "cci"
	KeyFundingRate       = "funding_rate"
	KeyFundingRateVol    = "funding_rate_volatility"
	KeyLongShortRatio    = "long_short_ratio"
	KeyLiquidations      = "liquidations"
	KeyVolatility        = "volatility"
)

// ComponentWeights is a normalized, read-only weight map. Instances are safe to
// share between goroutines because they are never modified after Resolve.
type ComponentWeights struct {
	m map[string]float64
}

// DefaultComponents returns the hard-coded lowest-priority component weight layer.
func DefaultComponents() map[string]float64 {
	return map[string]float64{
		KeyRSI:               0.12,
		KeyMACD:              0.14,
		KeyAwesomeOscillator: 0.10,
		KeyWilliamsR:         0.08,
		KeyATR:               0.08,
		KeyCCI:               0.08,
		KeyFundingRate:       0.10,
		KeyFundingRateVol:    0.04,
		KeyLongShortRatio:    0.10,
		KeyLiquidations:      0.08,
		KeyVolatility:        0.08,
	}
}

// DefaultTimeframes returns the hard-coded timeframe weight layer, keyed by the
// market.Timeframe string values.
func DefaultTimeframes() map[string]float64 {
	return map[string]float64{
		"base": 0.40,
		"ltf":  0.30,
		"mtf":  0.20,
		"htf":  0.10,
	}
}

// Resolve layers the three component weight sources (override wins), folds the
// funding_rate_volatility key into funding_rate, and normalizes. A zero sum after
// layering returns ErrZeroWeightSum.
func Resolve(defaults, component, override map[string]float64) (ComponentWeights, error) {
	merged := merge(defaults, component, override)

	// funding_rate and funding_rate_volatility are configured separately but score
	// as one component; the rate/volatility split is applied inside the funding
	// score itself, not in the weight map.
	if vol, ok := merged[KeyFundingRateVol]; ok {
		merged[KeyFundingRate] += vol
		delete(merged, KeyFundingRateVol)
	}

	return normalize(merged)
}

// ResolveTimeframes layers and normalizes timeframe weights with the same zero-sum
// semantics as Resolve.
func ResolveTimeframes(defaults, override map[string]float64) (ComponentWeights, error) {
	return normalize(merge(defaults, override))
}

func merge(layers ...map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

func normalize(m map[string]float64) (ComponentWeights, error) {
	sum := 0.0
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ComponentWeights{}, fmt.Errorf("weight %s is not finite", k)
		}
		if v < 0 {
			return ComponentWeights{}, fmt.Errorf("weight %s is negative: %f", k, v)
		}
		sum += v
	}
	if sum == 0 {
		return ComponentWeights{}, ErrZeroWeightSum
	}
	normalized := make(map[string]float64, len(m))
	for k, v := range m {
		normalized[k] = v / sum
	}
	return ComponentWeights{m: normalized}, nil
}

// Get returns the weight for a key, zero when absent.
func (w ComponentWeights) Get(key string) float64 {
	return w.m[key]
}

// Has reports whether a key carries a weight.
func (w ComponentWeights) Has(key string) bool {
	_, ok := w.m[key]
	return ok
}

// Sum returns the total of all weights; 1.0 within floating tolerance for any
// successfully resolved set.
func (w ComponentWeights) Sum() float64 {
	sum := 0.0
	for _, v := range w.m {
		sum += v
	}
	return sum
}

// Keys returns all weighted keys in sorted order.
func (w ComponentWeights) Keys() []string {
	keys := make([]string, 0, len(w.m))
	for k := range w.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the weight map, keeping the value itself immutable.
func (w ComponentWeights) Map() map[string]float64 {
	out := make(map[string]float64, len(w.m))
	for k, v := range w.m {
		out[k] = v
	}
	return out
}

// Len returns the number of weighted keys.
func (w ComponentWeights) Len() int {
	return len(w.m)
}

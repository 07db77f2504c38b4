package indicator

import (
	"math"

	"github.com/marketweave/confluence/internal/market"
)

// Lookbacks holds the base-timeframe minimum bar counts per indicator. Non-base
// timeframes require proportionally less history: slower views carry fewer bars per
// snapshot by construction, and demanding the full window there would push every
// indicator into neutral fallback. The scaled minimum never drops below the
// indicator's computation window: talib reads that many bars unconditionally.
type Lookbacks struct {
	RSI               int
	MACD              int
	AwesomeOscillator int
	WilliamsR         int
	ATR               int
	CCI               int
}

// DefaultLookbacks returns the warm-up requirements matching the default periods.
func DefaultLookbacks() Lookbacks {
	return Lookbacks{
		RSI:               rsiPeriod + 1,
		MACD:              macdSlow + macdSignal, // 35: slow EMA warm-up plus signal line
		AwesomeOscillator: aoSlowPeriod,
		WilliamsR:         williamsPeriod,
		ATR:               atrPeriod + 1,
		CCI:               cciPeriod,
	}
}

// Per-timeframe scaling of the base requirement.
var timeframeScale = map[market.Timeframe]float64{
	market.TimeframeBase: 1.00,
	market.TimeframeLTF:  0.80,
	market.TimeframeMTF:  0.70,
	market.TimeframeHTF:  0.50,
}

// toleranceBand accepts series within 95% of the scaled minimum, so a snapshot one
// or two bars short of the window does not flap between scored and neutral.
const toleranceBand = 0.95

func (lb Lookbacks) base(name string) int {
	switch name {
	case NameRSI:
		return lb.RSI
	case NameMACD:
		return lb.MACD
	case NameAwesomeOscillator:
		return lb.AwesomeOscillator
	case NameWilliamsR:
		return lb.WilliamsR
	case NameATR:
		return lb.ATR
	case NameCCI:
		return lb.CCI
	}
	return 0
}

// warmup is the shortest series each talib computation can take without reading
// past the slice (or yielding only its zero-filled prefix). RSI and ATR seed on
// period+1 bars, the SMA-based indicators on a full period, and MACD emits its
// first histogram bar at slow+signal-1.
func warmup(name string) int {
	switch name {
	case NameRSI:
		return rsiPeriod + 1
	case NameMACD:
		return macdSlow + macdSignal - 1
	case NameAwesomeOscillator:
		return aoSlowPeriod
	case NameWilliamsR:
		return williamsPeriod
	case NameATR:
		return atrPeriod + 1
	case NameCCI:
		return cciPeriod
	}
	return 0
}

// Required returns the minimum bar count for an indicator on a timeframe: the
// scaled base requirement, floored at the indicator's warm-up.
func (lb Lookbacks) Required(name string, tf market.Timeframe) int {
	scale, ok := timeframeScale[tf]
	if !ok {
		scale = 1.0
	}
	required := int(math.Ceil(float64(lb.base(name)) * scale))
	if w := warmup(name); required < w {
		required = w
	}
	return required
}

// Sufficient reports whether n bars satisfy the scaled minimum within the
// tolerance band. The band never admits a series shorter than the warm-up.
func (lb Lookbacks) Sufficient(name string, tf market.Timeframe, n int) bool {
	required := lb.Required(name, tf)
	if required <= 0 {
		return true
	}
	threshold := float64(required) * toleranceBand
	if w := float64(warmup(name)); threshold < w {
		threshold = w
	}
	return float64(n) >= threshold
}

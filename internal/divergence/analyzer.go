// Package divergence detects cross-timeframe disagreements between the base and
// lower timeframe raw indicator readings. A lower timeframe that has already
// flipped to the other side of an indicator's threshold leads the base timeframe,
// so each detected divergence carries a fixed score adjustment for its component.
package divergence

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/marketweave/confluence/internal/indicator"
)

// Direction of a detected divergence.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Fixed adjustments per divergence class. Oscillator divergences move a component
// by ten points, the volatility divergence by five.
const (
	oscillatorAdjustment = 10.0
	volatilityAdjustment = 5.0
)

// Event is one detected divergence between the base and lower timeframe.
type Event struct {
	Indicator   string    `json:"indicator"`
	Direction   Direction `json:"direction"`
	Magnitude   float64   `json:"magnitude"` // absolute raw-value gap between the two timeframes
	Description string    `json:"description"`
	Adjustment  float64   `json:"score_adjustment"`
}

// Result groups the divergences of one scoring pass with the per-component score
// adjustments they imply. At most one adjustment exists per indicator.
type Result struct {
	Bullish     []Event            `json:"bullish"`
	Bearish     []Event            `json:"bearish"`
	Adjustments map[string]float64 `json:"score_adjustments"`
}

// Analyze compares base and lower timeframe raw values for every indicator that
// has both. The analyzer is stateless; medium and higher timeframes are never
// compared. A failure evaluating one indicator is logged and skipped so the
// remaining indicators still get their chance.
func Analyze(base, ltf indicator.Values) Result {
	res := Result{Adjustments: make(map[string]float64)}

	checks := []struct {
		name string
		fn   func() *Event
	}{
		{indicator.NameRSI, func() *Event { return checkRSI(base.RSI, ltf.RSI) }},
		{indicator.NameMACD, func() *Event { return checkMACD(base.MACD, ltf.MACD) }},
		{indicator.NameAwesomeOscillator, func() *Event { return checkAO(base.AO, ltf.AO) }},
		{indicator.NameWilliamsR, func() *Event { return checkWilliamsR(base.WilliamsR, ltf.WilliamsR) }},
		{indicator.NameCCI, func() *Event { return checkCCI(base.CCI, ltf.CCI) }},
		{indicator.NameATR, func() *Event { return checkATR(base.ATR, ltf.ATR) }},
	}

	for _, c := range checks {
		ev := evaluate(c.name, c.fn)
		if ev == nil {
			continue
		}
		if ev.Direction == Bullish {
			res.Bullish = append(res.Bullish, *ev)
		} else {
			res.Bearish = append(res.Bearish, *ev)
		}
		res.Adjustments[ev.Indicator] = ev.Adjustment
	}
	return res
}

// evaluate isolates one indicator's divergence check: a panic in one check must
// not abort the others.
func evaluate(name string, fn func() *Event) (ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("indicator", name).Interface("panic", r).
				Msg("divergence check failed, skipping indicator")
			ev = nil
		}
	}()
	return fn()
}

func checkRSI(base, ltf *indicator.RSIValue) *Event {
	if base == nil || ltf == nil {
		return nil
	}
	switch {
	case base.Value < 30 && ltf.Value > 30:
		return event(indicator.NameRSI, Bullish, base.Value, ltf.Value, oscillatorAdjustment,
			"base RSI oversold while lower timeframe has recovered")
	case base.Value > 70 && ltf.Value < 70:
		return event(indicator.NameRSI, Bearish, base.Value, ltf.Value, -oscillatorAdjustment,
			"base RSI overbought while lower timeframe has rolled over")
	}
	return nil
}

func checkMACD(base, ltf *indicator.MACDValue) *Event {
	if base == nil || ltf == nil {
		return nil
	}
	switch {
	case base.Value < 0 && ltf.Value > 0:
		return event(indicator.NameMACD, Bullish, base.Value, ltf.Value, oscillatorAdjustment,
			"base MACD negative while lower timeframe has crossed above zero")
	case base.Value > 0 && ltf.Value < 0:
		return event(indicator.NameMACD, Bearish, base.Value, ltf.Value, -oscillatorAdjustment,
			"base MACD positive while lower timeframe has crossed below zero")
	}
	return nil
}

func checkAO(base, ltf *indicator.AOValue) *Event {
	if base == nil || ltf == nil {
		return nil
	}
	switch {
	case base.Value < 0 && ltf.Value > 0:
		return event(indicator.NameAwesomeOscillator, Bullish, base.Value, ltf.Value, oscillatorAdjustment,
			"base AO below zero while lower timeframe momentum has turned positive")
	case base.Value > 0 && ltf.Value < 0:
		return event(indicator.NameAwesomeOscillator, Bearish, base.Value, ltf.Value, -oscillatorAdjustment,
			"base AO above zero while lower timeframe momentum has turned negative")
	}
	return nil
}

func checkWilliamsR(base, ltf *indicator.WilliamsRValue) *Event {
	if base == nil || ltf == nil {
		return nil
	}
	switch {
	case base.Value < -50 && ltf.Value > -50:
		return event(indicator.NameWilliamsR, Bullish, base.Value, ltf.Value, oscillatorAdjustment,
			"base Williams %R in the lower half while lower timeframe has reclaimed -50")
	case base.Value > -50 && ltf.Value < -50:
		return event(indicator.NameWilliamsR, Bearish, base.Value, ltf.Value, -oscillatorAdjustment,
			"base Williams %R in the upper half while lower timeframe has lost -50")
	}
	return nil
}

func checkCCI(base, ltf *indicator.CCIValue) *Event {
	if base == nil || ltf == nil {
		return nil
	}
	switch {
	case base.Value < -100 && ltf.Value > -100:
		return event(indicator.NameCCI, Bullish, base.Value, ltf.Value, oscillatorAdjustment,
			"base CCI below -100 while lower timeframe has left the oversold band")
	case base.Value > 100 && ltf.Value < 100:
		return event(indicator.NameCCI, Bearish, base.Value, ltf.Value, -oscillatorAdjustment,
			"base CCI above +100 while lower timeframe has left the overbought band")
	}
	return nil
}

// checkATR compares relative volatility deviation. Volatility contracting on the
// base timeframe while expanding on the lower timeframe reads as a fresh move
// starting from below; the mirror reads as a move exhausting.
func checkATR(base, ltf *indicator.ATRValue) *Event {
	if base == nil || ltf == nil {
		return nil
	}
	switch {
	case base.Deviation < 0 && ltf.Deviation > 0:
		return event(indicator.NameATR, Bullish, base.Deviation, ltf.Deviation, volatilityAdjustment,
			"base volatility below trend while lower timeframe volatility is expanding")
	case base.Deviation > 0 && ltf.Deviation < 0:
		return event(indicator.NameATR, Bearish, base.Deviation, ltf.Deviation, -volatilityAdjustment,
			"base volatility above trend while lower timeframe volatility is fading")
	}
	return nil
}

func event(name string, dir Direction, baseVal, ltfVal, adj float64, desc string) *Event {
	return &Event{
		Indicator:   name,
		Direction:   dir,
		Magnitude:   math.Abs(baseVal - ltfVal),
		Description: fmt.Sprintf("%s: %s (base %.2f, ltf %.2f)", name, desc, baseVal, ltfVal),
		Adjustment:  adj,
	}
}

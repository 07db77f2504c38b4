// Package indicator computes raw technical indicator readings per timeframe from
// OHLCV series. It produces values only; mapping values onto 0-100 confluence
// scores lives in internal/score.
package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/marketweave/confluence/internal/market"
)

// Technical indicator names, shared with the weight map and divergence analyzer.
const (
	NameRSI               = "rsi"
	NameMACD              = "macd"
	NameAwesomeOscillator = "awesome_oscillator"
	NameWilliamsR         = "williams_r"
	NameATR               = "atr"
	NameCCI               = "cci"
)

// TechnicalNames lists the technical indicators in stable order.
var TechnicalNames = []string{
	NameRSI, NameMACD, NameAwesomeOscillator, NameWilliamsR, NameATR, NameCCI,
}

// Fixed computation periods. Lookback minimums scale per timeframe; the periods
// themselves do not.
const (
	rsiPeriod      = 14
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	aoFastPeriod   = 5
	aoSlowPeriod   = 34
	williamsPeriod = 14
	atrPeriod      = 14
	cciPeriod      = 20

	// trendTail is how many recent readings feed the "value vs recent mean" trend
	// terms in the score formulas.
	trendTail = 4
)

// RSIValue is the latest relative strength reading.
type RSIValue struct {
	Value float64 `json:"value"`
}

// MACDValue carries the latest MACD line state plus the previous bar, which the
// score formula needs for edge-triggered crossover detection.
type MACDValue struct {
	Value      float64   `json:"value"`
	Signal     float64   `json:"signal"`
	Hist       float64   `json:"hist"`
	PrevValue  float64   `json:"prev_value"`
	PrevSignal float64   `json:"prev_signal"`
	HistTail   []float64 `json:"hist_tail,omitempty"` // up to 4 readings before the current bar
}

// AOValue is the awesome oscillator state (5/34 SMA spread of median price).
type AOValue struct {
	Value float64   `json:"value"`
	Prev  float64   `json:"prev"`
	Tail  []float64 `json:"tail,omitempty"`
}

// WilliamsRValue is the latest Williams %R reading, in [-100, 0].
type WilliamsRValue struct {
	Value float64 `json:"value"`
}

// ATRValue is the latest average true range plus its relative deviation: the
// percentage distance of the current ATR from its own trailing mean. Scoring and
// divergence both read the deviation, not the absolute range.
type ATRValue struct {
	Value     float64   `json:"value"`
	Deviation float64   `json:"deviation"` // percent vs trailing mean
	DevTail   []float64 `json:"dev_tail,omitempty"`
}

// CCIValue is the latest commodity channel index reading.
type CCIValue struct {
	Value float64   `json:"value"`
	Tail  []float64 `json:"tail,omitempty"`
}

// Values holds one timeframe's raw readings. A nil entry means the indicator had
// insufficient history on this timeframe.
type Values struct {
	RSI       *RSIValue       `json:"rsi,omitempty"`
	MACD      *MACDValue      `json:"macd,omitempty"`
	AO        *AOValue        `json:"awesome_oscillator,omitempty"`
	WilliamsR *WilliamsRValue `json:"williams_r,omitempty"`
	ATR       *ATRValue       `json:"atr,omitempty"`
	CCI       *CCIValue       `json:"cci,omitempty"`
}

// Insufficiency records one indicator that could not be computed on a timeframe.
type Insufficiency struct {
	Indicator string
	Timeframe market.Timeframe
	Have      int
	Need      int
}

// Compute derives all raw indicator values for one timeframe's series. Indicators
// with insufficient history are reported rather than computed; a NaN anywhere in an
// indicator's result drops that indicator the same way, so downstream scoring only
// ever sees finite values.
func Compute(series market.Series, tf market.Timeframe, lb Lookbacks) (Values, []Insufficiency) {
	var vals Values
	var missing []Insufficiency

	n := len(series)
	record := func(name string) {
		missing = append(missing, Insufficiency{
			Indicator: name,
			Timeframe: tf,
			Have:      n,
			Need:      lb.Required(name, tf),
		})
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()

	if lb.Sufficient(NameRSI, tf, n) {
		if v, ok := lastFinite(talib.Rsi(closes, rsiPeriod)); ok {
			vals.RSI = &RSIValue{Value: v}
		} else {
			record(NameRSI)
		}
	} else {
		record(NameRSI)
	}

	if lb.Sufficient(NameMACD, tf, n) {
		if v := computeMACD(closes); v != nil {
			vals.MACD = v
		} else {
			record(NameMACD)
		}
	} else {
		record(NameMACD)
	}

	if lb.Sufficient(NameAwesomeOscillator, tf, n) {
		if v := computeAO(series.MedianPrices()); v != nil {
			vals.AO = v
		} else {
			record(NameAwesomeOscillator)
		}
	} else {
		record(NameAwesomeOscillator)
	}

	if lb.Sufficient(NameWilliamsR, tf, n) {
		if v, ok := lastFinite(talib.WillR(highs, lows, closes, williamsPeriod)); ok {
			vals.WilliamsR = &WilliamsRValue{Value: v}
		} else {
			record(NameWilliamsR)
		}
	} else {
		record(NameWilliamsR)
	}

	if lb.Sufficient(NameATR, tf, n) {
		if v := computeATR(highs, lows, closes); v != nil {
			vals.ATR = v
		} else {
			record(NameATR)
		}
	} else {
		record(NameATR)
	}

	if lb.Sufficient(NameCCI, tf, n) {
		if v := computeCCI(highs, lows, closes); v != nil {
			vals.CCI = v
		} else {
			record(NameCCI)
		}
	} else {
		record(NameCCI)
	}

	return vals, missing
}

func computeMACD(closes []float64) *MACDValue {
	macd, signal, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	cur, ok := lastFinite(macd)
	if !ok {
		return nil
	}
	sig, ok := lastFinite(signal)
	if !ok {
		return nil
	}
	h, ok := lastFinite(hist)
	if !ok {
		return nil
	}
	prev, ok := finiteAt(macd, len(macd)-2)
	if !ok {
		prev = cur
	}
	prevSig, ok := finiteAt(signal, len(signal)-2)
	if !ok {
		prevSig = sig
	}
	return &MACDValue{
		Value:      cur,
		Signal:     sig,
		Hist:       h,
		PrevValue:  prev,
		PrevSignal: prevSig,
		HistTail:   tailBefore(hist, trendTail),
	}
}

func computeAO(medians []float64) *AOValue {
	fast := talib.Sma(medians, aoFastPeriod)
	slow := talib.Sma(medians, aoSlowPeriod)
	ao := make([]float64, len(medians))
	for i := range ao {
		ao[i] = fast[i] - slow[i]
	}
	cur, ok := lastFinite(ao)
	if !ok {
		return nil
	}
	prev, ok := finiteAt(ao, len(ao)-2)
	if !ok {
		prev = cur
	}
	return &AOValue{Value: cur, Prev: prev, Tail: tailBefore(ao, trendTail)}
}

func computeATR(highs, lows, closes []float64) *ATRValue {
	atr := talib.Atr(highs, lows, closes, atrPeriod)
	cur, ok := lastFinite(atr)
	if !ok {
		return nil
	}
	devs := deviationSeries(atr, atrPeriod)
	dev, ok := lastFinite(devs)
	if !ok {
		return nil
	}
	return &ATRValue{Value: cur, Deviation: dev, DevTail: tailBefore(devs, trendTail)}
}

func computeCCI(highs, lows, closes []float64) *CCIValue {
	cci := talib.Cci(highs, lows, closes, cciPeriod)
	cur, ok := lastFinite(cci)
	if !ok {
		return nil
	}
	return &CCIValue{Value: cur, Tail: tailBefore(cci, trendTail)}
}

// deviationSeries maps each point to its percent deviation from the trailing mean
// of the preceding window, NaN where the window is not yet full or the mean is 0.
func deviationSeries(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		out[i] = math.NaN()
		if i+1 < window {
			continue
		}
		sum := 0.0
		valid := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(series[j]) {
				valid = false
				break
			}
			sum += series[j]
		}
		if !valid {
			continue
		}
		mean := sum / float64(window)
		if mean == 0 || math.IsNaN(series[i]) {
			continue
		}
		out[i] = (series[i] - mean) / mean * 100
	}
	return out
}

// tailBefore collects up to n finite values immediately preceding the last point,
// oldest first.
func tailBefore(series []float64, n int) []float64 {
	if len(series) < 2 {
		return nil
	}
	var out []float64
	for i := len(series) - 2; i >= 0 && len(out) < n; i-- {
		if math.IsNaN(series[i]) || math.IsInf(series[i], 0) {
			break
		}
		out = append([]float64{series[i]}, out...)
	}
	return out
}

func lastFinite(series []float64) (float64, bool) {
	return finiteAt(series, len(series)-1)
}

// finiteAt returns series[i] when it exists and is finite. talib warm-up prefixes
// are zero-filled, which counts as finite.
func finiteAt(series []float64, i int) (float64, bool) {
	if i < 0 || i >= len(series) {
		return 0, false
	}
	v := series[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

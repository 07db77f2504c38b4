package market

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Timeframe identifies one of the four resampled views of an instrument.
type Timeframe string

const (
	TimeframeBase Timeframe = "base" // primary scoring timeframe (e.g. 1m)
	TimeframeLTF  Timeframe = "ltf"  // lower timeframe (e.g. 5m)
	TimeframeMTF  Timeframe = "mtf"  // medium timeframe (e.g. 30m)
	TimeframeHTF  Timeframe = "htf"  // higher timeframe (e.g. 4h)
)

// Timeframes lists all timeframes in aggregation order.
var Timeframes = []Timeframe{TimeframeBase, TimeframeLTF, TimeframeMTF, TimeframeHTF}

// Valid reports whether tf is one of the four known timeframes.
func (tf Timeframe) Valid() bool {
	switch tf {
	case TimeframeBase, TimeframeLTF, TimeframeMTF, TimeframeHTF:
		return true
	}
	return false
}

// Candle is a single OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is an ordered OHLCV sequence, oldest bar first.
type Series []Candle

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high column.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low column.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts the volume column.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// MedianPrices returns (high+low)/2 per bar, the awesome oscillator input.
func (s Series) MedianPrices() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = (c.High + c.Low) / 2
	}
	return out
}

// Last returns the most recent bar.
func (s Series) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// PriceLevel is one side entry of an order book.
type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook is a depth snapshot, best levels first.
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// Trade is a single executed trade from the public feed.
type Trade struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Side      string    `json:"side"` // buy or sell, taker side
}

// Ticker is the latest top-of-book summary for a symbol.
type Ticker struct {
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Volume24h float64 `json:"volume_24h"`
}

// Sentiment carries the derivatives/positioning payload attached to a snapshot.
// Optional numeric fields are pointers so that absent and zero are distinguishable;
// read them through Value rather than dereferencing at call sites.
type Sentiment struct {
	FundingRate        *float64  `json:"funding_rate,omitempty"`         // current rate as a fraction, e.g. 0.0001
	FundingHistory     []float64 `json:"funding_history,omitempty"`      // recent rates, oldest first
	LongAccounts       *float64  `json:"long_accounts,omitempty"`        // long side of the long/short ratio
	ShortAccounts      *float64  `json:"short_accounts,omitempty"`       // short side of the long/short ratio
	LongLiquidations   *float64  `json:"long_liquidations,omitempty"`    // notional liquidated longs
	ShortLiquidations  *float64  `json:"short_liquidations,omitempty"`   // notional liquidated shorts
	RiskLimit          *float64  `json:"risk_limit,omitempty"`           // venue risk tier, informational
	MarketMood         string    `json:"market_mood,omitempty"`          // venue-reported mood label, informational
	RealizedVolatility *float64  `json:"realized_volatility,omitempty"`  // annualized, percent
}

// Value reads an optional sentiment field, rejecting NaN and Inf. It is the single
// extraction point for optional numerics: absent or unusable fields report ok=false
// and callers apply their own defined fallback.
func Value(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// Snapshot is the immutable per-cycle input to the scoring engine: one OHLCV series
// per available timeframe plus optional market payloads. The engine never mutates it.
type Snapshot struct {
	Symbol    string               `json:"symbol"`
	OHLCV     map[Timeframe]Series `json:"ohlcv"`
	Ticker    *Ticker              `json:"ticker,omitempty"`
	OrderBook *OrderBook           `json:"orderbook,omitempty"`
	Trades    []Trade              `json:"trades,omitempty"`
	Sentiment *Sentiment           `json:"sentiment,omitempty"`
}

// Series returns the OHLCV series for a timeframe, if present and non-empty.
func (s *Snapshot) Series(tf Timeframe) (Series, bool) {
	series, ok := s.OHLCV[tf]
	if !ok || len(series) == 0 {
		return nil, false
	}
	return series, true
}

// Fingerprint derives a deterministic identity for the snapshot's market data,
// suitable as a cache key: symbol plus length and last bar timestamp per timeframe.
func (s *Snapshot) Fingerprint() string {
	parts := make([]string, 0, len(s.OHLCV)+1)
	parts = append(parts, s.Symbol)
	tfs := make([]string, 0, len(s.OHLCV))
	for tf := range s.OHLCV {
		tfs = append(tfs, string(tf))
	}
	sort.Strings(tfs)
	for _, tf := range tfs {
		series := s.OHLCV[Timeframe(tf)]
		var lastTS int64
		if last, ok := series.Last(); ok {
			lastTS = last.Timestamp.UnixMilli()
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", tf, len(series), lastTS))
	}
	return strings.Join(parts, "|")
}

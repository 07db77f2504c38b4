package score

import (
	"math"

	"github.com/marketweave/confluence/internal/market"
)

// Sentiment component names.
const (
	NameFundingRate    = "funding_rate"
	NameLongShortRatio = "long_short_ratio"
	NameLiquidations   = "liquidations"
	NameVolatility     = "volatility"
)

// SentimentNames lists the sentiment components in stable order.
var SentimentNames = []string{
	NameFundingRate, NameLongShortRatio, NameLiquidations, NameVolatility,
}

// FundingSplit blends the funding rate score with the funding volatility score
// inside the single funding component. The weight map sees one funding weight;
// this split is applied here, after scoring.
type FundingSplit struct {
	Rate       float64
	Volatility float64
}

// DefaultFundingSplit is the documented 70/30 rate/volatility blend.
func DefaultFundingSplit() FundingSplit {
	return FundingSplit{Rate: 0.7, Volatility: 0.3}
}

// Funding rate scoring bounds: rates are clipped to +-0.2% before mapping, so the
// linear term spans the full [0,100] range at the clip edges.
const (
	fundingClipPct  = 0.2
	fundingPctScale = 250.0
)

// FundingRate scores the current funding rate, blended with a stability score of
// the recent funding history. Negative funding (shorts paying longs) is bullish.
// A missing rate scores neutral; a missing history leaves the volatility half
// neutral rather than failing the component.
func FundingRate(s *market.Sentiment, split FundingSplit, sensitivity float64) Outcome {
	var t Trace
	if s == nil {
		t.add("no_sentiment_payload", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}

	rate, ok := market.Value(s.FundingRate)
	if !ok {
		t.add("funding_rate_missing", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}

	pct := rate * 100
	if pct > fundingClipPct {
		pct = fundingClipPct
	} else if pct < -fundingClipPct {
		pct = -fundingClipPct
	}
	raw := 50 - pct*fundingPctScale
	t.add("linear", raw, map[string]float64{"rate_pct": pct})

	rateScore := Sigmoid(raw, sensitivity)
	t.add("sigmoid", rateScore, map[string]float64{"sensitivity": sensitivity})

	volScore := fundingVolatility(s.FundingHistory)
	t.add("volatility", volScore, map[string]float64{"history_len": float64(len(s.FundingHistory))})

	total := split.Rate + split.Volatility
	if total <= 0 {
		total, split = 1, FundingSplit{Rate: 1}
	}
	score := Clamp((rateScore*split.Rate + volScore*split.Volatility) / total)
	t.add("blend", score, map[string]float64{"rate_weight": split.Rate, "vol_weight": split.Volatility})
	return Outcome{Score: score, Trace: t}
}

// fundingVolatility scores the stability of recent funding. Steady funding reads
// mildly constructive, erratic funding reads as positioning stress. Fewer than two
// readings score neutral.
func fundingVolatility(history []float64) float64 {
	pct := make([]float64, len(history))
	for i, v := range history {
		pct[i] = v * 100
	}
	sd, ok := stddev(pct)
	if !ok {
		return Neutral
	}
	return Clamp(75 - sd*500)
}

// LongShortRatio scores the long share of positioning: 100 * long/(long+short).
// A zero or missing denominator is the defined neutral fallback, not an error.
func LongShortRatio(s *market.Sentiment, sensitivity float64) Outcome {
	var t Trace
	if s == nil {
		t.add("no_sentiment_payload", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}
	long, okL := market.Value(s.LongAccounts)
	short, okS := market.Value(s.ShortAccounts)
	if !okL || !okS || long+short <= 0 {
		t.add("ratio_unavailable", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}

	raw := Clamp(100 * long / (long + short))
	t.add("long_share", raw, map[string]float64{"long": long, "short": short})

	score := Sigmoid(raw, sensitivity)
	t.add("sigmoid", score, map[string]float64{"sensitivity": sensitivity})
	return Outcome{Score: score, Trace: t}
}

// Liquidations scores the liquidation balance: more long liquidations push the
// score bearish, more short liquidations push it bullish.
func Liquidations(s *market.Sentiment, sensitivity float64) Outcome {
	var t Trace
	if s == nil {
		t.add("no_sentiment_payload", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}
	longLiq, okL := market.Value(s.LongLiquidations)
	shortLiq, okS := market.Value(s.ShortLiquidations)
	if !okL || !okS || longLiq+shortLiq <= 0 {
		t.add("liquidations_unavailable", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}

	raw := Clamp((1 - longLiq/(longLiq+shortLiq)) * 100)
	t.add("balance", raw, map[string]float64{"long_liq": longLiq, "short_liq": shortLiq})

	score := Sigmoid(raw, sensitivity)
	t.add("sigmoid", score, map[string]float64{"sensitivity": sensitivity})
	return Outcome{Score: score, Trace: t}
}

// Volatility maps annualized realized volatility (percent) onto a score: calm
// tape scores high, a 30-60% band decays linearly, and anything beyond 60% decays
// faster toward zero.
func Volatility(s *market.Sentiment) Outcome {
	var t Trace
	if s == nil {
		t.add("no_sentiment_payload", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}
	v, ok := market.Value(s.RealizedVolatility)
	if !ok || v < 0 {
		t.add("volatility_unavailable", Neutral, nil)
		return Outcome{Score: Neutral, Trace: t}
	}

	var score float64
	switch {
	case v <= 30:
		score = 80 + (30-v)*(20.0/30.0)
	case v <= 60:
		score = 80 - (v - 30)
	default:
		score = math.Max(0, 50-(v-60)*1.25)
	}
	score = Clamp(score)
	t.add("piecewise", score, map[string]float64{"realized_vol_pct": v})
	return Outcome{Score: score, Trace: t}
}

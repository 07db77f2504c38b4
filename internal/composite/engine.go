// Package composite hosts the confluence engine: the synchronous, CPU-bound
// pipeline that turns one market snapshot into a composite 0-100 score with
// signals and interpretation. An Engine is immutable after construction and safe
// for concurrent use across symbols.
package composite

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketweave/confluence/internal/divergence"
	"github.com/marketweave/confluence/internal/indicator"
	"github.com/marketweave/confluence/internal/interpret"
	"github.com/marketweave/confluence/internal/market"
	"github.com/marketweave/confluence/internal/score"
	"github.com/marketweave/confluence/internal/signal"
	"github.com/marketweave/confluence/internal/weights"
)

// SigmoidSensitivities carries the per-indicator sigmoid settings for the
// sentiment scores. Zero disables the transform for that indicator.
type SigmoidSensitivities struct {
	FundingRate    float64
	LongShortRatio float64
	Liquidations   float64
}

// Params configures an Engine. All weight maps are optional layers; nil maps
// simply leave the layer empty and the hard-coded defaults apply.
type Params struct {
	// ComponentConfig is the per-component weight layer (indicator + sentiment
	// sections); ComponentOverrides is the confluence-section layer that wins
	// over it.
	ComponentConfig    map[string]float64
	ComponentOverrides map[string]float64
	TimeframeOverrides map[string]float64

	Lookbacks    *indicator.Lookbacks
	Sigmoid      SigmoidSensitivities
	FundingSplit *score.FundingSplit
	MinBaseBars  int

	Logger *zerolog.Logger
}

// Engine computes composite confluence results. Construction resolves and
// normalizes all weight maps once; a broken weight configuration fails here and
// nowhere later.
type Engine struct {
	components weights.ComponentWeights
	timeframes weights.ComponentWeights
	aggregator *score.Aggregator

	lookbacks    indicator.Lookbacks
	sigmoid      SigmoidSensitivities
	fundingSplit score.FundingSplit
	minBaseBars  int

	log zerolog.Logger
}

// NewEngine resolves the layered weight configuration and builds an engine.
// A zero-sum weight map is a configuration failure and is returned, not
// swallowed.
func NewEngine(p Params) (*Engine, error) {
	components, err := weights.Resolve(weights.DefaultComponents(), p.ComponentConfig, p.ComponentOverrides)
	if err != nil {
		return nil, fmt.Errorf("resolve component weights: %w", err)
	}
	timeframes, err := weights.ResolveTimeframes(weights.DefaultTimeframes(), p.TimeframeOverrides)
	if err != nil {
		return nil, fmt.Errorf("resolve timeframe weights: %w", err)
	}

	lookbacks := indicator.DefaultLookbacks()
	if p.Lookbacks != nil {
		lookbacks = *p.Lookbacks
	}
	fundingSplit := score.DefaultFundingSplit()
	if p.FundingSplit != nil {
		fundingSplit = *p.FundingSplit
	}
	minBaseBars := p.MinBaseBars
	if minBaseBars <= 0 {
		minBaseBars = 50
	}
	logger := zerolog.Nop()
	if p.Logger != nil {
		logger = *p.Logger
	}

	return &Engine{
		components:   components,
		timeframes:   timeframes,
		aggregator:   score.NewAggregator(timeframes),
		lookbacks:    lookbacks,
		sigmoid:      p.Sigmoid,
		fundingSplit: fundingSplit,
		minBaseBars:  minBaseBars,
		log:          logger,
	}, nil
}

// ComponentWeights exposes the resolved component weight map.
func (e *Engine) ComponentWeights() weights.ComponentWeights { return e.components }

// TimeframeWeights exposes the resolved timeframe weight map.
func (e *Engine) TimeframeWeights() weights.ComponentWeights { return e.timeframes }

// Evaluate runs the full pipeline for one snapshot. It always returns a
// well-formed result: validation failures come back as an ERROR result with a
// neutral score, per-indicator problems collapse to neutral component scores,
// and no data-quality condition ever surfaces as a Go error.
func (e *Engine) Evaluate(snap *market.Snapshot) *Result {
	started := time.Now()

	if err := snap.Validate(e.minBaseBars); err != nil {
		e.log.Warn().Err(err).Msg("snapshot failed validation")
		return errorResult(symbolOf(snap), err, started)
	}

	logger := e.log.With().Str("symbol", snap.Symbol).Logger()

	rawByTF := make(map[market.Timeframe]indicator.Values, len(market.Timeframes))
	tfScores := make(map[market.Timeframe]map[string]float64, len(market.Timeframes))
	perIndicator := make(map[string]map[market.Timeframe]float64, len(indicator.TechnicalNames))

	for _, tf := range market.Timeframes {
		series, ok := snap.Series(tf)
		if !ok {
			continue
		}
		values, missing := indicator.Compute(series, tf, e.lookbacks)
		rawByTF[tf] = values
		for _, m := range missing {
			logger.Warn().Str("indicator", m.Indicator).Str("timeframe", string(m.Timeframe)).
				Int("have", m.Have).Int("need", m.Need).
				Msg("insufficient history, scoring neutral")
		}

		scores := make(map[string]float64, len(indicator.TechnicalNames))
		for _, name := range indicator.TechnicalNames {
			outcome := e.scoreIndicator(name, values, len(series), tf)
			scores[name] = outcome.Score
			if logger.GetLevel() <= zerolog.DebugLevel {
				logger.Debug().Str("indicator", name).Str("timeframe", string(tf)).
					Float64("score", outcome.Score).Array("trace", outcome.Trace).
					Msg("indicator scored")
			}
			if perIndicator[name] == nil {
				perIndicator[name] = make(map[market.Timeframe]float64, len(market.Timeframes))
			}
			perIndicator[name][tf] = outcome.Score
		}
		tfScores[tf] = scores
	}

	components := make(map[string]float64, e.components.Len())
	for _, name := range indicator.TechnicalNames {
		components[name] = e.aggregator.Combine(perIndicator[name])
	}
	for name, outcome := range e.sentimentScores(snap.Sentiment) {
		components[name] = outcome.Score
	}

	divs := divergence.Result{Adjustments: map[string]float64{}}
	base, hasBase := rawByTF[market.TimeframeBase]
	ltf, hasLTF := rawByTF[market.TimeframeLTF]
	if hasBase && hasLTF {
		divs = divergence.Analyze(base, ltf)
	}

	overall, adjusted := Combine(components, divs.Adjustments, e.components)
	signals := signal.Classify(overall, adjusted)
	interpretation := interpret.Generate(snap.Symbol, overall, adjusted, len(divs.Bullish), len(divs.Bearish))

	logger.Info().Float64("score", overall).
		Int("signals", len(signals)).
		Int("divergences", len(divs.Bullish)+len(divs.Bearish)).
		Dur("elapsed", time.Since(started)).
		Msg("confluence computed")

	return &Result{
		Symbol:          snap.Symbol,
		Score:           overall,
		Components:      adjusted,
		TimeframeScores: tfScores,
		Divergences:     divs,
		Signals:         signals,
		Interpretation:  interpretation,
		Meta: Meta{
			TimestampMS:       time.Now().UnixMilli(),
			Status:            StatusSuccess,
			CalculationTimeMS: float64(time.Since(started).Microseconds()) / 1000,
		},
	}
}

// scoreIndicator maps one raw indicator value onto its score, applying the
// neutral policy for indicators that had insufficient history on this timeframe.
func (e *Engine) scoreIndicator(name string, values indicator.Values, have int, tf market.Timeframe) score.Outcome {
	need := float64(e.lookbacks.Required(name, tf))
	switch name {
	case indicator.NameRSI:
		if values.RSI == nil {
			return score.InsufficientData(float64(have), need)
		}
		return score.RSI(*values.RSI)
	case indicator.NameMACD:
		if values.MACD == nil {
			return score.InsufficientData(float64(have), need)
		}
		return score.MACD(*values.MACD)
	case indicator.NameAwesomeOscillator:
		if values.AO == nil {
			return score.InsufficientData(float64(have), need)
		}
		return score.AwesomeOscillator(*values.AO)
	case indicator.NameWilliamsR:
		if values.WilliamsR == nil {
			return score.InsufficientData(float64(have), need)
		}
		return score.WilliamsR(*values.WilliamsR)
	case indicator.NameATR:
		if values.ATR == nil {
			return score.InsufficientData(float64(have), need)
		}
		return score.ATR(*values.ATR)
	case indicator.NameCCI:
		if values.CCI == nil {
			return score.InsufficientData(float64(have), need)
		}
		return score.CCI(*values.CCI)
	}
	return score.InsufficientData(float64(have), need)
}

// sentimentScores computes the sentiment components once; they have no
// per-timeframe dimension.
func (e *Engine) sentimentScores(s *market.Sentiment) map[string]score.Outcome {
	return map[string]score.Outcome{
		score.NameFundingRate:    score.FundingRate(s, e.fundingSplit, e.sigmoid.FundingRate),
		score.NameLongShortRatio: score.LongShortRatio(s, e.sigmoid.LongShortRatio),
		score.NameLiquidations:   score.Liquidations(s, e.sigmoid.Liquidations),
		score.NameVolatility:     score.Volatility(s),
	}
}

func symbolOf(snap *market.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.Symbol
}

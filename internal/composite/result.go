package composite

import (
	"time"

	"github.com/marketweave/confluence/internal/divergence"
	"github.com/marketweave/confluence/internal/market"
	"github.com/marketweave/confluence/internal/signal"
)

// Status marks whether a result came from a full scoring pass or a validation
// failure. Partial data never produces ERROR; only a snapshot the engine refuses
// to score does.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// Meta carries the bookkeeping attached to a result. Timestamps are metadata
// only; nothing in the score arithmetic reads the clock.
type Meta struct {
	TimestampMS       int64  `json:"timestamp_ms"`
	Status            Status `json:"status"`
	CalculationTimeMS float64 `json:"calculation_time_ms"`
	Error             string `json:"error,omitempty"`
}

// Result is the engine's sole output: the composite confluence score with its
// full breakdown. It is stateless and re-derivable from the snapshot that
// produced it.
type Result struct {
	Symbol          string                                  `json:"symbol"`
	Score           float64                                 `json:"score"`
	Components      map[string]float64                      `json:"components"`
	TimeframeScores map[market.Timeframe]map[string]float64 `json:"timeframe_scores"`
	Divergences     divergence.Result                       `json:"divergences"`
	Signals         []signal.Signal                         `json:"signals"`
	Interpretation  string                                  `json:"interpretation"`
	Meta            Meta                                    `json:"metadata"`
}

func errorResult(symbol string, err error, started time.Time) *Result {
	return &Result{
		Symbol:          symbol,
		Score:           50.0,
		Components:      map[string]float64{},
		TimeframeScores: map[market.Timeframe]map[string]float64{},
		Divergences:     divergence.Result{Adjustments: map[string]float64{}},
		Interpretation:  "snapshot rejected: " + err.Error(),
		Meta: Meta{
			TimestampMS:       time.Now().UnixMilli(),
			Status:            StatusError,
			CalculationTimeMS: float64(time.Since(started).Microseconds()) / 1000,
			Error:             err.Error(),
		},
	}
}

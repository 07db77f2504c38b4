package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSnapshot marks a snapshot that fails hard validation: missing symbol,
// missing base timeframe, or a base series below the enforced minimum length.
// Short or absent non-base timeframes are tolerated and handled by neutral fallback.
var ErrInvalidSnapshot = errors.New("invalid market snapshot")

// Validate enforces the hard input contract. minBaseBars is the required base
// timeframe length; the engine refuses to score below it because every downstream
// indicator would collapse to neutral anyway.
func (s *Snapshot) Validate(minBaseBars int) error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidSnapshot)
	}
	base, ok := s.Series(TimeframeBase)
	if !ok {
		return fmt.Errorf("%w: base timeframe missing for %s", ErrInvalidSnapshot, s.Symbol)
	}
	if len(base) < minBaseBars {
		return fmt.Errorf("%w: base timeframe has %d bars, need %d", ErrInvalidSnapshot, len(base), minBaseBars)
	}
	if err := base.checkBars(); err != nil {
		return fmt.Errorf("%w: base timeframe: %v", ErrInvalidSnapshot, err)
	}
	for tf := range s.OHLCV {
		if !tf.Valid() {
			return fmt.Errorf("%w: unknown timeframe %q", ErrInvalidSnapshot, tf)
		}
	}
	return nil
}

// checkBars rejects series with unusable price columns or out-of-order timestamps.
func (s Series) checkBars() error {
	for i, c := range s {
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("bar %d has non-finite value", i)
			}
		}
		if i > 0 && !c.Timestamp.After(s[i-1].Timestamp) {
			return fmt.Errorf("bar %d timestamp not increasing", i)
		}
	}
	return nil
}

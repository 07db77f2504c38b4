// Package interpret renders numeric confluence results as human-readable text.
// Interpretation is presentation only: a failure here falls back to a generic
// score sentence and is never allowed to fail the scoring result.
package interpret

import (
	"fmt"
	"sort"
	"strings"
)

// Band returns the descriptive band for a 0-100 score.
func Band(score float64) string {
	switch {
	case score >= 75:
		return "strongly bullish"
	case score >= 60:
		return "bullish"
	case score > 40:
		return "neutral"
	case score >= 25:
		return "bearish"
	default:
		return "strongly bearish"
	}
}

// Component phrases one component's reading.
func Component(name string, score float64) string {
	return fmt.Sprintf("%s is %s (%.1f)", name, Band(score), score)
}

// Generate composes the interpretation line for a full result: the overall band,
// the strongest and weakest components, and the divergence count. Any panic while
// composing falls back to the generic sentence.
func Generate(symbol string, overall float64, components map[string]float64, bullishDivs, bearishDivs int) (text string) {
	defer func() {
		if recover() != nil {
			text = fallback(overall)
		}
	}()

	if len(components) == 0 {
		return fmt.Sprintf("%s scores %.1f/100 (%s); no components available", symbol, overall, Band(overall))
	}

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if components[names[i]] == components[names[j]] {
			return names[i] < names[j]
		}
		return components[names[i]] > components[names[j]]
	})

	parts := []string{
		fmt.Sprintf("%s scores %.1f/100 (%s)", symbol, overall, Band(overall)),
		fmt.Sprintf("strongest: %s", Component(names[0], components[names[0]])),
		fmt.Sprintf("weakest: %s", Component(names[len(names)-1], components[names[len(names)-1]])),
	}
	if bullishDivs > 0 || bearishDivs > 0 {
		parts = append(parts, fmt.Sprintf("%d bullish / %d bearish timeframe divergences", bullishDivs, bearishDivs))
	}
	return strings.Join(parts, "; ")
}

func fallback(overall float64) string {
	return fmt.Sprintf("composite confluence score %.1f/100", overall)
}

package calculator

import "math"

// WindowRange returns the highest high and lowest low across the given bars.
// Empty input yields (-Inf, +Inf).
func WindowRange(highs, lows []float64) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, h := range highs {
		if h > high {
			high = h
		}
	}
	for _, l := range lows {
		if l < low {
			low = l
		}
	}
	return high, low
}

// PercentChange returns (current-reference)/reference*100.
func PercentChange(current, reference float64) float64 {
	return (current - reference) / reference * 100
}

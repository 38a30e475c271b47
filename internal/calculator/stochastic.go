package calculator

import "math"

// StochasticNeutral is substituted for %K when a window's highest high equals its lowest low.
const StochasticNeutral = 50.0

// Oscillator holds the smoothed %K and %D lines of a stochastic oscillator.
type Oscillator struct {
	K Series
	D Series
}

// Stochastic computes raw %K = 100*(close-lowestLow)/(highestHigh-lowestLow) over trailing
// windows of period bars, then %K = SMA(raw, smoothK) and %D = SMA(%K, smoothD).
// Values are clamped to [0, 100]; a flat window yields StochasticNeutral.
func Stochastic(closes, highs, lows []float64, period, smoothK, smoothD int) Oscillator {
	n := len(closes)
	if len(highs) != n || len(lows) != n || period <= 0 || n < period || smoothK <= 0 || smoothD <= 0 {
		return Oscillator{K: emptySeries(n), D: emptySeries(n)}
	}

	raw := make([]float64, n-period+1)
	for i := range raw {
		end := i + period
		hh, ll := WindowRange(highs[i:end], lows[i:end])
		if hh == ll {
			raw[i] = StochasticNeutral
			continue
		}
		k := 100 * (closes[end-1] - ll) / (hh - ll)
		raw[i] = math.Max(0, math.Min(100, k))
	}

	k := smooth(Series{Offset: period - 1, Values: raw}, smoothK)
	d := smooth(k, smoothD)
	return Oscillator{K: k, D: d}
}

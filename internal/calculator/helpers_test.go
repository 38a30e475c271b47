package calculator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// randomWalk returns n closes with matching highs and lows.
func randomWalk(r *rand.Rand, n int) (closes, highs, lows []float64) {
	closes = make([]float64, n)
	highs = make([]float64, n)
	lows = make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		price += r.NormFloat64()
		if price < 1 {
			price = 1
		}
		closes[i] = price
		highs[i] = price + r.Float64()*2
		lows[i] = price - r.Float64()*2
	}
	return closes, highs, lows
}

// assertAligned compares two equally long float slices treating Undefined entries as equal.
func assertAligned(t *testing.T, expected, actual []float64, delta float64) {
	t.Helper()
	if !assert.Len(t, actual, len(expected)) {
		return
	}
	for i := range expected {
		if expected[i] != expected[i] {
			assert.True(t, actual[i] != actual[i], "index %d: expected undefined, got %v", i, actual[i])
			continue
		}
		assert.InDelta(t, expected[i], actual[i], delta, "index %d", i)
	}
}

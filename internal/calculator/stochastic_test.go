package calculator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStochastic_Values(t *testing.T) {
	closes := []float64{5, 6, 7, 8, 9}
	highs := []float64{6, 7, 8, 9, 10}
	lows := []float64{4, 5, 6, 7, 8}

	osc := Stochastic(closes, highs, lows, 3, 1, 1)
	require.Equal(t, 3, osc.K.Len())
	assert.Equal(t, 2, osc.K.Offset)
	// window [4..8]: (7-4)/(8-4)
	assert.InDelta(t, 75.0, osc.K.Values[0], 1e-9)
	assert.Equal(t, osc.K, osc.D)
}

func TestStochastic_Alignment(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	closes, highs, lows := randomWalk(r, 40)

	osc := Stochastic(closes, highs, lows, 14, 3, 3)
	assert.Equal(t, 14-1+3-1, osc.K.Offset)
	assert.Equal(t, 14-1+3-1+3-1, osc.D.Offset)
	assert.Equal(t, len(closes), osc.K.SourceLen())
	assert.Equal(t, len(closes), osc.D.SourceLen())
}

func TestStochastic_FlatWindowIsNeutral(t *testing.T) {
	flat := []float64{10, 10, 10, 10, 10}
	osc := Stochastic(flat, flat, flat, 3, 1, 3)
	for _, v := range osc.K.Values {
		assert.Equal(t, StochasticNeutral, v)
	}
	for _, v := range osc.D.Values {
		assert.Equal(t, StochasticNeutral, v)
	}
}

func TestStochastic_AlwaysInRange(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		n := 5 + r.Intn(60)
		closes, highs, lows := randomWalk(r, n)
		if run%5 == 0 {
			// force degenerate windows
			for i := range closes {
				highs[i], lows[i], closes[i] = 50, 50, 50
			}
		}
		period := 1 + r.Intn(14)
		osc := Stochastic(closes, highs, lows, period, 1+r.Intn(3), 1+r.Intn(3))
		for _, v := range append(append([]float64{}, osc.K.Values...), osc.D.Values...) {
			assert.False(t, v != v, "NaN leaked into oscillator")
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestStochastic_BadInput(t *testing.T) {
	assert.True(t, Stochastic([]float64{1, 2}, []float64{1}, []float64{1, 2}, 1, 1, 1).K.Empty())
	assert.True(t, Stochastic([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}, 3, 1, 1).D.Empty())
}

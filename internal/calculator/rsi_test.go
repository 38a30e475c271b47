package calculator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSI_PlaceholdersAndLength(t *testing.T) {
	closes := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1}
	rsi := RSI(closes, 4)

	require.Equal(t, len(closes), rsi.Len())
	assert.Equal(t, 0, rsi.Offset)
	for i := 0; i <= 4; i++ {
		assert.Equal(t, RSINeutral, rsi.Values[i], "index %d", i)
	}
	for i := 5; i < len(closes); i++ {
		assert.Greater(t, rsi.Values[i], 50.0, "rising closes push RSI above 50 (index %d)", i)
	}
}

func TestRSI_WilderSmoothing(t *testing.T) {
	closes := []float64{1, 2, 1, 2, 3}
	rsi := RSI(closes, 2)
	// seed: gains (1,0) losses (0,1) -> 0.5/0.5
	// i=3: +1 -> g=0.75 l=0.25 -> 75
	// i=4: +1 -> g=0.875 l=0.125 -> 87.5
	assert.InDelta(t, 75.0, rsi.Values[3], 1e-9)
	assert.InDelta(t, 87.5, rsi.Values[4], 1e-9)
}

func TestRSI_NoLosses(t *testing.T) {
	rsi := RSI([]float64{1, 2, 3, 4, 5, 6}, 3)
	assert.Equal(t, 100.0, rsi.Values[4])
	assert.Equal(t, 100.0, rsi.Values[5])
}

func TestRSI_Bounds(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	closes, _, _ := randomWalk(r, 300)
	rsi := RSI(closes, 14)
	for _, v := range rsi.Values {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

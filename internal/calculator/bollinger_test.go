package calculator

import (
	"math/rand"
	"testing"

	"github.com/markcheno/go-talib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollinger_BasisIsPaddedSMA(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	closes, _, _ := randomWalk(r, 80)

	for _, p := range []int{1, 5, 20, 80} {
		bb := Bollinger(closes, p, 2)
		padded := bb.Basis.Padded()
		require.Len(t, padded, len(closes))
		assertAligned(t, SMA(closes, p).Padded(), padded, 0)
		assert.Len(t, bb.Upper.Padded(), len(closes))
		assert.Len(t, bb.Lower.Padded(), len(closes))
	}
}

func TestBollinger_MatchesTalib(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	closes, _, _ := randomWalk(r, 150)

	bb := Bollinger(closes, 20, 2)
	upper, middle, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
	for i := 19; i < len(closes); i++ {
		b, _ := bb.Basis.At(i)
		u, _ := bb.Upper.At(i)
		l, _ := bb.Lower.At(i)
		assert.InDelta(t, middle[i], b, 1e-6, "basis %d", i)
		assert.InDelta(t, upper[i], u, 1e-6, "upper %d", i)
		assert.InDelta(t, lower[i], l, 1e-6, "lower %d", i)
	}
}

func TestBollinger_Ordering(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 9, 10, 11}
	bb := Bollinger(closes, 4, 2)
	for i := 3; i < len(closes); i++ {
		b, _ := bb.Basis.At(i)
		u, _ := bb.Upper.At(i)
		l, _ := bb.Lower.At(i)
		assert.GreaterOrEqual(t, u, b)
		assert.LessOrEqual(t, l, b)
	}
}

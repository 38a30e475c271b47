package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindowRange(t *testing.T) {
	high, low := WindowRange([]float64{1.2, 1.5, 1.3}, []float64{1.0, 0.9, 1.1})
	assert.Equal(t, 1.5, high)
	assert.Equal(t, 0.9, low)

	high, low = WindowRange(nil, nil)
	assert.True(t, math.IsInf(high, -1))
	assert.True(t, math.IsInf(low, 1))
}

func TestPercentChange(t *testing.T) {
	assert.InDelta(t, 10.0, PercentChange(110, 100), 1e-9)
	assert.InDelta(t, -2.5, PercentChange(97.5, 100), 1e-9)
	assert.Equal(t, 0.0, PercentChange(42, 42))
}

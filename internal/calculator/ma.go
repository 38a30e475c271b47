package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SMA computes the simple moving average over every trailing window of period values.
// The result starts at source index period-1 and is empty when there are fewer than period values.
func SMA(values []float64, period int) Series {
	if period <= 0 || len(values) < period {
		return emptySeries(len(values))
	}
	out := make([]float64, len(values)-period+1)
	for i := range out {
		out[i] = stat.Mean(values[i:i+period], nil)
	}
	return Series{Offset: period - 1, Values: out}
}

// StdDev computes the population standard deviation over the same windows as SMA,
// using each window's SMA value as its mean.
func StdDev(values []float64, period int) Series {
	mean := SMA(values, period)
	if mean.Empty() {
		return mean
	}
	out := make([]float64, mean.Len())
	for i, m := range mean.Values {
		var sq float64
		for _, v := range values[i : i+period] {
			sq += (v - m) * (v - m)
		}
		out[i] = math.Sqrt(sq / float64(period))
	}
	return Series{Offset: mean.Offset, Values: out}
}

// EMA computes the exponential moving average seeded with the first value.
// Unlike SMA the output has one entry per input value.
func EMA(values []float64, period int) Series {
	if period <= 0 || len(values) == 0 {
		return emptySeries(len(values))
	}
	k := 2.0 / (float64(period) + 1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return Series{Values: out}
}

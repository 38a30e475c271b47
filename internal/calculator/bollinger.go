package calculator

// Bands holds Bollinger Band lines sharing the alignment of SMA(values, period).
type Bands struct {
	Basis Series
	Upper Series
	Lower Series
}

// Bollinger computes basis = SMA, upper/lower = basis ± multiplier*StdDev.
// Use Padded on each line for output aligned 1:1 with values.
func Bollinger(values []float64, period int, multiplier float64) Bands {
	basis := SMA(values, period)
	dev := StdDev(values, period)
	upper := make([]float64, basis.Len())
	lower := make([]float64, basis.Len())
	for i, b := range basis.Values {
		upper[i] = b + multiplier*dev.Values[i]
		lower[i] = b - multiplier*dev.Values[i]
	}
	return Bands{
		Basis: basis,
		Upper: Series{Offset: basis.Offset, Values: upper},
		Lower: Series{Offset: basis.Offset, Values: lower},
	}
}

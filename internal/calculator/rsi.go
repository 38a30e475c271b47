package calculator

// RSINeutral fills the RSI warm-up entries so the output stays index-aligned with its input.
const RSINeutral = 50.0

// RSI computes the Wilder-smoothed relative strength index.
// The first period deltas seed the average gain and loss with a simple mean; later
// bars apply Wilder smoothing. Entries 0..period hold RSINeutral. RSI is 100 when the
// average loss is zero. Requires at least period+1 values, otherwise the result is empty.
func RSI(closes []float64, period int) Series {
	if period <= 0 || len(closes) < period+1 {
		return emptySeries(len(closes))
	}

	out := make([]float64, len(closes))
	for i := 0; i <= period; i++ {
		out[i] = RSINeutral
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := delta(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		gain, loss := delta(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return Series{Values: out}
}

func delta(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

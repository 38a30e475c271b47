package strategy

import (
	"testing"
	"time"

	"SignalSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// channelBreakdown is a gentle uptrend followed by three sharp down bars.
func channelBreakdown(t *testing.T) *model.PriceSeries {
	t.Helper()
	var bars []model.Bar
	for i := 0; i < 30; i++ {
		c := 100 + 0.1*float64(i)
		o := c - 0.05
		bars = append(bars, model.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: o, High: c + 0.1, Low: o - 0.1, Close: c})
	}
	drops := []model.Bar{
		{Open: 102.9, High: 103.0, Low: 94.5, Close: 95},
		{Open: 95, High: 95.2, Low: 89.5, Close: 90},
		{Open: 90, High: 90.2, Low: 84.5, Close: 85},
	}
	for i, b := range drops {
		b.Time = start.Add(time.Duration(30+i) * time.Hour)
		bars = append(bars, b)
	}
	return mustSeries(t, bars)
}

func TestEMAStochastic_Signals(t *testing.T) {
	cfg := DefaultEMAStochastic()
	ps := channelBreakdown(t)

	sig, err := Evaluate(ps, cfg)
	require.NoError(t, err)
	assert.Equal(t, model.KindBuy, sig.Kind, sig.Reason)
	assert.Contains(t, sig.Reason, "below low EMA")

	sig, err = Evaluate(mirror(t, ps), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.KindSell, sig.Kind, sig.Reason)
}

func TestEMAStochastic_NoRefire(t *testing.T) {
	ps := channelBreakdown(t)
	bars := ps.Bars()
	// a fourth down bar keeps every buy condition true, so the edge has already fired
	bars = append(bars, model.Bar{Time: start.Add(33 * time.Hour), Open: 85, High: 85.2, Low: 79.5, Close: 80})

	sig, err := Evaluate(mustSeries(t, bars), DefaultEMAStochastic())
	require.NoError(t, err)
	assert.Equal(t, model.KindHold, sig.Kind, sig.Reason)
}

var rsiReversal = []float64{
	99.7, 100.3, 99.7, 100.3, 99.7, 100.3, 99.7, 100.3, 99.7, 100.3,
	99.7, 100.3, 99.7, 100.3, 99.7, 100.3, 99.7, 100.3, 99.7, 100.3,
	99, 98, 97, 96, 95, 96.6,
}

func TestRSIBollinger_Signals(t *testing.T) {
	cfg := DefaultRSIBollinger()
	ps := closesSeries(t, rsiReversal)

	sig, err := Evaluate(ps, cfg)
	require.NoError(t, err)
	assert.Equal(t, model.KindBuy, sig.Kind, sig.Reason)
	assert.Contains(t, sig.Reason, "RSI crossed above 30")

	sig, err = Evaluate(mirror(t, ps), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.KindSell, sig.Kind, sig.Reason)
}

func TestRSIBollinger_RequiresBothCrossings(t *testing.T) {
	// stop one bar earlier: RSI and price are still below their levels
	sig, err := Evaluate(closesSeries(t, rsiReversal[:len(rsiReversal)-1]), DefaultRSIBollinger())
	require.NoError(t, err)
	assert.Equal(t, model.KindHold, sig.Kind)

	// a bounce too small to lift the close back over the lower band
	closes := append(append([]float64{}, rsiReversal[:len(rsiReversal)-1]...), 95.1)
	sig, err = Evaluate(closesSeries(t, closes), DefaultRSIBollinger())
	require.NoError(t, err)
	assert.Equal(t, model.KindHold, sig.Kind)
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		kind   model.SignalKind
	}{
		{"up", []float64{100, 101.6}, model.KindBuy},
		{"down", []float64{100, 98.4}, model.KindSell},
		{"flat", []float64{100, 101}, model.KindHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := Evaluate(closesSeries(t, tt.closes), DefaultMomentum())
			require.NoError(t, err)
			assert.Equal(t, tt.kind, sig.Kind, sig.Reason)
		})
	}
}

func TestMomentum_ReferenceBars(t *testing.T) {
	sig, err := Evaluate(closesSeries(t, []float64{100, 100.5, 101, 102}), Momentum{ThresholdPct: 1.5, ReferenceBars: 3})
	require.NoError(t, err)
	assert.Equal(t, model.KindBuy, sig.Kind)
}

func TestEvaluateQuote(t *testing.T) {
	sig, err := EvaluateQuote(98, 100, DefaultMomentum())
	require.NoError(t, err)
	assert.Equal(t, model.KindSell, sig.Kind)

	_, err = EvaluateQuote(98, 0, DefaultMomentum())
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = EvaluateQuote(98, 100, Momentum{})
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestMACrossover(t *testing.T) {
	cfg := MACrossover{ShortPeriod: 3, LongPeriod: 5}

	sig, err := Evaluate(closesSeries(t, []float64{10, 9, 8, 7, 6, 5, 5, 5, 5, 9}), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.KindBuy, sig.Kind, sig.Reason)
	assert.Contains(t, sig.Reason, "crossed above")

	sig, err = Evaluate(closesSeries(t, []float64{90, 91, 92, 93, 94, 95, 95, 95, 95, 91}), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.KindSell, sig.Kind, sig.Reason)
}

package strategy

import (
	"math/rand"
	"testing"
	"time"

	"SignalSentinel/internal/model"

	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// closesSeries builds hourly bars whose open equals close with a fixed high/low spread.
func closesSeries(t *testing.T, closes []float64) *model.PriceSeries {
	t.Helper()
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: start.Add(time.Duration(i) * time.Hour), Open: c, High: c + 0.2, Low: c - 0.2, Close: c}
	}
	return mustSeries(t, bars)
}

func mustSeries(t *testing.T, bars []model.Bar) *model.PriceSeries {
	t.Helper()
	ps, err := model.NewPriceSeries("TEST", 60, bars)
	require.NoError(t, err)
	return ps
}

// mirror reflects prices around 100 so bullish setups become bearish ones.
func mirror(t *testing.T, ps *model.PriceSeries) *model.PriceSeries {
	t.Helper()
	bars := ps.Bars()
	for i, b := range bars {
		bars[i] = model.Bar{Time: b.Time, Open: 200 - b.Open, High: 200 - b.Low, Low: 200 - b.High, Close: 200 - b.Close}
	}
	return mustSeries(t, bars)
}

func randomSeries(t *testing.T, r *rand.Rand, n int) *model.PriceSeries {
	t.Helper()
	bars := make([]model.Bar, n)
	price := 100.0
	for i := range bars {
		open := price
		price += r.NormFloat64() * 1.5
		price = min(max(price, 5), 195)
		hi := max(open, price) + r.Float64()
		lo := min(open, price) - r.Float64()
		bars[i] = model.Bar{Time: start.Add(time.Duration(i) * time.Minute), Open: open, High: hi, Low: lo, Close: price}
	}
	return mustSeries(t, bars)
}

func randomConfig(r *rand.Rand) Config {
	switch r.Intn(4) {
	case 0:
		oversold := 5 + r.Float64()*40
		return EMAStochastic{
			ChannelPeriod: 1 + r.Intn(10), TrendPeriod: 1 + r.Intn(30), StochPeriod: 1 + r.Intn(20),
			SmoothK: 1 + r.Intn(3), SmoothD: 1 + r.Intn(4),
			Oversold: oversold, Overbought: oversold + 1 + r.Float64()*(98-oversold),
		}
	case 1:
		oversold := 5 + r.Float64()*40
		return RSIBollinger{
			RSIPeriod: 2 + r.Intn(20), BandPeriod: 2 + r.Intn(30), Multiplier: 0.5 + r.Float64()*2,
			Oversold: oversold, Overbought: oversold + 1 + r.Float64()*(98-oversold),
		}
	case 2:
		return Momentum{ThresholdPct: 0.01 + r.Float64()*3, ReferenceBars: 1 + r.Intn(5)}
	default:
		short := 1 + r.Intn(10)
		return MACrossover{ShortPeriod: short, LongPeriod: short + 1 + r.Intn(20)}
	}
}

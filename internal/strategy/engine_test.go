package strategy

import (
	"math/rand"
	"testing"

	"SignalSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_InsufficientData(t *testing.T) {
	configs := []Config{DefaultEMAStochastic(), DefaultRSIBollinger(), DefaultMomentum(), DefaultMACrossover()}
	ps := closesSeries(t, []float64{100})

	for _, cfg := range configs {
		t.Run(string(cfg.Family()), func(t *testing.T) {
			sig, err := Evaluate(ps, cfg)
			require.NoError(t, err)
			assert.Equal(t, model.KindHold, sig.Kind)
			assert.Contains(t, sig.Reason, "insufficient data")
		})
	}
}

func TestEvaluate_LongBandNeedsFullWindow(t *testing.T) {
	cfg := RSIBollinger{RSIPeriod: 14, Oversold: 30, Overbought: 70, BandPeriod: 200, Multiplier: 2}
	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	sig, err := Evaluate(closesSeries(t, closes), cfg)
	require.NoError(t, err)
	assert.Equal(t, model.KindHold, sig.Kind)
	assert.Contains(t, sig.Reason, "needs 201 bars, have 150")
}

func TestEvaluate_InvalidInput(t *testing.T) {
	ps := closesSeries(t, []float64{1, 2, 3})

	_, err := Evaluate(ps, MACrossover{ShortPeriod: 21, LongPeriod: 9})
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = Evaluate(ps, RSIBollinger{RSIPeriod: 14, Oversold: 70, Overbought: 30, BandPeriod: 20, Multiplier: 2})
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = Evaluate(nil, DefaultMomentum())
	assert.ErrorIs(t, err, model.ErrMalformedInput)

	_, err = Evaluate(ps, nil)
	assert.ErrorIs(t, err, model.ErrMalformedInput)
}

func TestResolve_BuyOverridesSell(t *testing.T) {
	sig := resolve(conditions{buy: true, sell: true, buyReason: "b", sellReason: "s"})
	assert.Equal(t, model.Signal{Kind: model.KindBuy, Reason: "b"}, sig)

	sig = resolve(conditions{sell: true, sellReason: "s"})
	assert.Equal(t, model.KindSell, sig.Kind)

	sig = resolve(conditions{})
	assert.Equal(t, model.KindHold, sig.Kind)
	assert.NotEmpty(t, sig.Reason)
}

func TestConditions_MutuallyExclusive(t *testing.T) {
	r := rand.New(rand.NewSource(2024))
	for run := 0; run < 2000; run++ {
		cfg := randomConfig(r)
		require.NoError(t, cfg.Validate())
		ps := randomSeries(t, r, cfg.Lookback()+r.Intn(80))

		for _, series := range []*model.PriceSeries{ps, mirror(t, ps)} {
			c, err := cfg.evaluate(series)
			require.NoError(t, err)
			assert.False(t, c.buy && c.sell, "run %d: %s produced both BUY and SELL (%+v)", run, cfg.Family(), cfg)
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	ps := randomSeries(t, r, 120)
	for _, cfg := range []Config{DefaultEMAStochastic(), DefaultRSIBollinger(), DefaultMomentum(), DefaultMACrossover()} {
		a, err := Evaluate(ps, cfg)
		require.NoError(t, err)
		b, err := Evaluate(ps, cfg)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestEvaluate_DoesNotRefireWhileBeyondThreshold(t *testing.T) {
	// steadily rising closes keep short SMA above long SMA without a fresh cross
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	sig, err := Evaluate(closesSeries(t, closes), MACrossover{ShortPeriod: 3, LongPeriod: 5})
	require.NoError(t, err)
	assert.Equal(t, model.KindHold, sig.Kind)
}

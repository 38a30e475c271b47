package verifier

import (
	"errors"
	"testing"
	"time"

	"SignalSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

// hourly builds a series of flat bars one hour apart starting at t0.
func hourly(t *testing.T, symbol string, closes ...float64) *model.PriceSeries {
	t.Helper()
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c, Low: c, Close: c}
	}
	ps, err := model.NewPriceSeries(symbol, 60, bars)
	require.NoError(t, err)
	return ps
}

func pending(kind model.SignalKind, entry float64, at time.Time) model.SignalRecord {
	return model.SignalRecord{
		ID: "sig-1", Symbol: "EUR/USD", IntervalMinutes: 60, StrategyID: "eurusd-h1",
		Kind: kind, EntryPrice: entry, EmittedAt: at,
	}
}

func TestVerify_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		kind   model.SignalKind
		entry  float64
		next   float64
		result model.Result
		pnl    float64
	}{
		{"buy rises", model.KindBuy, 100, 105, model.ResultWin, 5},
		{"buy falls", model.KindBuy, 100, 97, model.ResultLoss, -3},
		{"sell falls", model.KindSell, 100, 96, model.ResultWin, 4},
		{"sell rises", model.KindSell, 100, 102, model.ResultLoss, -2},
		{"buy flat is a loss", model.KindBuy, 100, 100, model.ResultLoss, 0},
		{"sell flat is a loss", model.KindSell, 100, 100, model.ResultLoss, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := hourly(t, "EUR/USD", tt.entry, tt.next, 999)
			got, done, err := Verify(pending(tt.kind, tt.entry, t0), series)
			require.NoError(t, err)
			assert.True(t, done)
			assert.Equal(t, tt.result, got.Result)
			assert.Equal(t, tt.next, got.ExitPrice)
			assert.InDelta(t, tt.pnl, got.PnL, 1e-9)
		})
	}
}

func TestVerify_UsesFirstBarStrictlyAfterEmission(t *testing.T) {
	series := hourly(t, "EUR/USD", 100, 101, 102)
	// emitted between bar 0 and bar 1: bar 1 settles it
	got, done, err := Verify(pending(model.KindBuy, 100, t0.Add(30*time.Minute)), series)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, 101.0, got.ExitPrice)

	// emitted exactly on bar 1: bar 2 settles it
	got, done, err = Verify(pending(model.KindBuy, 100, t0.Add(time.Hour)), series)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, 102.0, got.ExitPrice)
}

func TestVerify_DeferredWithoutLaterBar(t *testing.T) {
	series := hourly(t, "EUR/USD", 100, 101)
	rec := pending(model.KindSell, 101, t0.Add(time.Hour))

	got, done, err := Verify(rec, series)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, rec, got)
	assert.False(t, got.Resolved())
}

func TestVerify_TerminalRecordUnchanged(t *testing.T) {
	rec := pending(model.KindBuy, 100, t0)
	rec.Result = model.ResultWin
	rec.ExitPrice = 110
	rec.PnL = 10

	got, done, err := Verify(rec, hourly(t, "EUR/USD", 100, 50))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, rec, got)

	// again, now with no series at all
	got, done, err = Verify(got, nil)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, rec, got)
}

func TestVerify_NonTradableIsInvalid(t *testing.T) {
	for _, kind := range []model.SignalKind{model.KindHold, "", "SHORT"} {
		got, done, err := Verify(pending(kind, 100, t0), nil)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, model.ResultInvalid, got.Result)
		assert.Zero(t, got.ExitPrice)
	}
}

func TestVerify_MalformedInput(t *testing.T) {
	_, _, err := Verify(pending(model.KindBuy, 100, t0), nil)
	assert.True(t, errors.Is(err, model.ErrMalformedInput))

	_, _, err = Verify(pending(model.KindBuy, 100, t0), hourly(t, "GBP/USD", 1, 2))
	assert.True(t, errors.Is(err, model.ErrMalformedInput))
}

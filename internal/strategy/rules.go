package strategy

import (
	"fmt"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

type channelZone struct {
	buy, sell            bool
	close, open          float64
	highEMA, lowEMA, mid float64
	trend, k, d          float64
}

func (c EMAStochastic) evaluate(ps *model.PriceSeries) (conditions, error) {
	closes, opens, highs, lows := ps.Closes(), ps.Opens(), ps.Highs(), ps.Lows()
	highEMA := calculator.EMA(highs, c.ChannelPeriod)
	lowEMA := calculator.EMA(lows, c.ChannelPeriod)
	trend := calculator.EMA(closes, c.TrendPeriod)
	osc := calculator.Stochastic(closes, highs, lows, c.StochPeriod, c.SmoothK, c.SmoothD)

	zone := func(i int) (channelZone, bool) {
		hi, ok1 := highEMA.At(i)
		lo, ok2 := lowEMA.At(i)
		tr, ok3 := trend.At(i)
		k, ok4 := osc.K.At(i)
		d, ok5 := osc.D.At(i)
		if !(ok1 && ok2 && ok3 && ok4 && ok5) {
			return channelZone{}, false
		}
		z := channelZone{close: closes[i], open: opens[i], highEMA: hi, lowEMA: lo, mid: (hi + lo) / 2, trend: tr, k: k, d: d}
		z.buy = z.close < lo && z.open < z.mid && z.close < tr && k < c.Oversold && d < c.Oversold
		z.sell = z.close > hi && z.open > z.mid && z.close > tr && k > c.Overbought && d > c.Overbought
		return z, true
	}

	n := ps.Len()
	prev, okPrev := zone(n - 2)
	cur, okCur := zone(n - 1)
	if !okPrev || !okCur {
		return conditions{holdReason: "indicators undefined on the last two bars"}, nil
	}

	return conditions{
		buy:  cur.buy && !prev.buy,
		sell: cur.sell && !prev.sell,
		buyReason: fmt.Sprintf("close %.5f below low EMA %.5f and trend EMA %.5f, %%K %.1f / %%D %.1f under %.0f",
			cur.close, cur.lowEMA, cur.trend, cur.k, cur.d, c.Oversold),
		sellReason: fmt.Sprintf("close %.5f above high EMA %.5f and trend EMA %.5f, %%K %.1f / %%D %.1f over %.0f",
			cur.close, cur.highEMA, cur.trend, cur.k, cur.d, c.Overbought),
		holdReason: fmt.Sprintf("close %.5f inside channel %.5f-%.5f, %%K %.1f", cur.close, cur.lowEMA, cur.highEMA, cur.k),
	}, nil
}

func (c RSIBollinger) evaluate(ps *model.PriceSeries) (conditions, error) {
	closes := ps.Closes()
	rsi := calculator.RSI(closes, c.RSIPeriod)
	bands := calculator.Bollinger(closes, c.BandPeriod, c.Multiplier)

	n := len(closes)
	prevRSI, curRSI, ok1 := rsi.LastTwo()
	prevLower, curLower, ok2 := bands.Lower.LastTwo()
	prevUpper, curUpper, ok3 := bands.Upper.LastTwo()
	if !(ok1 && ok2 && ok3) {
		return conditions{holdReason: "indicators undefined on the last two bars"}, nil
	}
	prevClose, curClose := closes[n-2], closes[n-1]

	rsiUp := crossedUp(prevRSI, curRSI, c.Oversold, c.Oversold)
	rsiDown := crossedDown(prevRSI, curRSI, c.Overbought, c.Overbought)
	bandUp := crossedUp(prevClose, curClose, prevLower, curLower)
	bandDown := crossedDown(prevClose, curClose, prevUpper, curUpper)

	return conditions{
		buy:  rsiUp && bandUp,
		sell: rsiDown && bandDown,
		buyReason: fmt.Sprintf("RSI crossed above %.0f (%.1f -> %.1f) and close re-entered lower band %.5f",
			c.Oversold, prevRSI, curRSI, curLower),
		sellReason: fmt.Sprintf("RSI crossed below %.0f (%.1f -> %.1f) and close re-entered upper band %.5f",
			c.Overbought, prevRSI, curRSI, curUpper),
		holdReason: fmt.Sprintf("RSI %.1f, close %.5f within bands %.5f-%.5f", curRSI, curClose, curLower, curUpper),
	}, nil
}

func (c Momentum) evaluate(ps *model.PriceSeries) (conditions, error) {
	n := ps.Len()
	return c.quote(ps.At(n-1).Close, ps.At(n-1-c.ReferenceBars).Close)
}

func (c Momentum) quote(current, reference float64) (conditions, error) {
	if reference <= 0 {
		return conditions{}, fmt.Errorf("%w: reference price must be positive, got %v", model.ErrMalformedInput, reference)
	}
	change := calculator.PercentChange(current, reference)
	return conditions{
		buy:        change >= c.ThresholdPct,
		sell:       change <= -c.ThresholdPct,
		buyReason:  fmt.Sprintf("price up %.2f%% (%.5f -> %.5f), threshold %.2f%%", change, reference, current, c.ThresholdPct),
		sellReason: fmt.Sprintf("price down %.2f%% (%.5f -> %.5f), threshold %.2f%%", change, reference, current, c.ThresholdPct),
		holdReason: fmt.Sprintf("price change %+.2f%% within ±%.2f%%", change, c.ThresholdPct),
	}, nil
}

// EvaluateQuote applies the momentum rule to a bare quote: a current price and a reference price.
func EvaluateQuote(current, reference float64, cfg Momentum) (model.Signal, error) {
	if err := cfg.Validate(); err != nil {
		return model.Signal{}, fmt.Errorf("%w: %s: %v", model.ErrMalformedInput, cfg.Family(), err)
	}
	c, err := cfg.quote(current, reference)
	if err != nil {
		return model.Signal{}, err
	}
	return resolve(c), nil
}

// evaluate detects the crossover from the current short/long relationship and the
// previous bar's close against the long SMA.
func (c MACrossover) evaluate(ps *model.PriceSeries) (conditions, error) {
	closes := ps.Closes()
	short := calculator.SMA(closes, c.ShortPeriod)
	long := calculator.SMA(closes, c.LongPeriod)

	n := len(closes)
	curShort, ok1 := short.Last()
	prevLong, curLong, ok2 := long.LastTwo()
	if !ok1 || !ok2 {
		return conditions{holdReason: "moving averages undefined on the last two bars"}, nil
	}
	prevClose := closes[n-2]

	return conditions{
		buy:  curShort > curLong && prevClose <= prevLong,
		sell: curShort < curLong && prevClose >= prevLong,
		buyReason: fmt.Sprintf("SMA%d %.5f crossed above SMA%d %.5f",
			c.ShortPeriod, curShort, c.LongPeriod, curLong),
		sellReason: fmt.Sprintf("SMA%d %.5f crossed below SMA%d %.5f",
			c.ShortPeriod, curShort, c.LongPeriod, curLong),
		holdReason: fmt.Sprintf("SMA%d %.5f vs SMA%d %.5f, no cross", c.ShortPeriod, curShort, c.LongPeriod, curLong),
	}, nil
}

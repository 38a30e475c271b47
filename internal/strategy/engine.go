package strategy

import (
	"fmt"

	"SignalSentinel/internal/model"
)

// conditions is what a rule family reports for the current bar.
type conditions struct {
	buy        bool
	sell       bool
	buyReason  string
	sellReason string
	holdReason string
}

// Evaluate computes the indicators cfg needs over ps and applies its rule set.
// A series shorter than cfg.Lookback() yields HOLD; a nil series or invalid config is an error.
func Evaluate(ps *model.PriceSeries, cfg Config) (model.Signal, error) {
	if ps == nil || ps.Len() == 0 {
		return model.Signal{}, fmt.Errorf("%w: empty price series", model.ErrMalformedInput)
	}
	if cfg == nil {
		return model.Signal{}, fmt.Errorf("%w: no strategy config", model.ErrMalformedInput)
	}
	if err := cfg.Validate(); err != nil {
		return model.Signal{}, fmt.Errorf("%w: %s: %v", model.ErrMalformedInput, cfg.Family(), err)
	}
	if need := cfg.Lookback(); ps.Len() < need {
		return model.Hold("%v: %s needs %d bars, have %d", model.ErrInsufficientData, cfg.Family(), need, ps.Len()), nil
	}

	c, err := cfg.evaluate(ps)
	if err != nil {
		return model.Signal{}, fmt.Errorf("%s: %w", cfg.Family(), err)
	}
	return resolve(c), nil
}

// resolve turns conditions into a signal. SELL is checked first and a true BUY
// overrides it, so BUY wins if both conditions ever hold at once.
func resolve(c conditions) model.Signal {
	sig := model.Signal{Kind: model.KindHold, Reason: c.holdReason}
	if sig.Reason == "" {
		sig.Reason = "no crossing on the last bar"
	}
	if c.sell {
		sig = model.Signal{Kind: model.KindSell, Reason: c.sellReason}
	}
	if c.buy {
		sig = model.Signal{Kind: model.KindBuy, Reason: c.buyReason}
	}
	return sig
}

// crossedUp reports whether a series moved from below level to at or above it.
func crossedUp(prev, cur, prevLevel, curLevel float64) bool {
	return prev < prevLevel && cur >= curLevel
}

// crossedDown reports whether a series moved from above level to at or below it.
func crossedDown(prev, cur, prevLevel, curLevel float64) bool {
	return prev > prevLevel && cur <= curLevel
}

// Package verifier settles emitted signals against the price action that followed them.
package verifier

import (
	"fmt"

	"SignalSentinel/internal/model"
)

// Verify scores a pending record against bars that follow its emission.
//
// The exit price is the close of the first bar strictly after EmittedAt. PnL is
// exit-entry for BUY and entry-exit for SELL; the result is WIN when PnL > 0 and
// LOSS otherwise, so a flat move counts as a loss. Records whose kind is neither
// BUY nor SELL become INVALID without looking at prices.
//
// The boolean reports whether the returned record is terminal. A resolved input is
// returned unchanged with true. When no bar follows EmittedAt yet the record is
// returned unchanged with false and the caller should retry later.
func Verify(rec model.SignalRecord, series *model.PriceSeries) (model.SignalRecord, bool, error) {
	if rec.Resolved() {
		return rec, true, nil
	}
	if !rec.Kind.Tradable() {
		rec.Result = model.ResultInvalid
		return rec, true, nil
	}
	if series == nil {
		return rec, false, fmt.Errorf("%w: no price series for %s", model.ErrMalformedInput, rec.ID)
	}
	if series.Symbol() != rec.Symbol {
		return rec, false, fmt.Errorf("%w: series for %s cannot verify %s signal %s",
			model.ErrMalformedInput, series.Symbol(), rec.Symbol, rec.ID)
	}

	next, ok := series.After(rec.EmittedAt)
	if !ok {
		return rec, false, nil
	}

	pnl := next.Close - rec.EntryPrice
	if rec.Kind == model.KindSell {
		pnl = rec.EntryPrice - next.Close
	}
	rec.ExitPrice = next.Close
	rec.PnL = pnl
	rec.Result = model.ResultLoss
	if pnl > 0 {
		rec.Result = model.ResultWin
	}
	return rec, true, nil
}

package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SignalKind is the discrete trading decision.
type SignalKind string

const (
	KindBuy  SignalKind = "BUY"
	KindSell SignalKind = "SELL"
	KindHold SignalKind = "HOLD"
)

// Tradable reports whether the kind opens a position that can be verified.
func (k SignalKind) Tradable() bool { return k == KindBuy || k == KindSell }

// Signal is the output of one strategy evaluation.
type Signal struct {
	Kind   SignalKind
	Reason string
}

// Hold builds a HOLD signal with a formatted reason.
func Hold(format string, args ...any) Signal {
	return Signal{Kind: KindHold, Reason: fmt.Sprintf(format, args...)}
}

// Result is the verification outcome of a SignalRecord. The zero value means pending.
type Result string

const (
	ResultPending Result = ""
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
	ResultInvalid Result = "INVALID"
)

// SignalRecord is the persisted form of an emitted BUY/SELL signal.
type SignalRecord struct {
	ID              string
	Symbol          string
	IntervalMinutes int
	StrategyID      string
	Kind            SignalKind
	Reason          string
	EntryPrice      float64
	EmittedAt       time.Time

	Result     Result
	ExitPrice  float64
	PnL        float64
	VerifiedAt time.Time
}

// Resolved reports whether the record reached a terminal result.
func (r SignalRecord) Resolved() bool { return r.Result != ResultPending }

// NewSignalRecord builds a pending record for a non-HOLD signal. Persisting it is up to the caller.
func NewSignalRecord(sig Signal, symbol string, intervalMinutes int, strategyID string, entryPrice float64, emittedAt time.Time) (SignalRecord, error) {
	if !sig.Kind.Tradable() {
		return SignalRecord{}, fmt.Errorf("%w: cannot record %s signal", ErrMalformedInput, sig.Kind)
	}
	if symbol == "" {
		return SignalRecord{}, fmt.Errorf("%w: empty symbol", ErrMalformedInput)
	}
	if entryPrice <= 0 {
		return SignalRecord{}, fmt.Errorf("%w: entry price must be positive, got %v", ErrMalformedInput, entryPrice)
	}
	return SignalRecord{
		ID:              uuid.NewString(),
		Symbol:          symbol,
		IntervalMinutes: intervalMinutes,
		StrategyID:      strategyID,
		Kind:            sig.Kind,
		Reason:          sig.Reason,
		EntryPrice:      entryPrice,
		EmittedAt:       emittedAt.UTC(),
	}, nil
}

package recorder

import (
	"context"
	"fmt"

	"SignalSentinel/internal/model"
)

// Filter narrows ListSignals. Zero values mean no restriction.
type Filter struct {
	Symbol      string
	PendingOnly bool
	Limit       int
}

// Recorder persists emitted signals and their verification results.
//
// RecordSignal stores at most one record per id and per (strategy id, emission
// time); a second one returns model.ErrDuplicateSignal.
// ResolveSignal is a check-and-set: it writes the terminal fields only while the
// stored record is still pending, and returns model.ErrAlreadyResolved otherwise.
// Lookups of unknown ids return model.ErrNotFound.
type Recorder interface {
	RecordSignal(ctx context.Context, rec model.SignalRecord) error
	GetSignal(ctx context.Context, id string) (model.SignalRecord, error)
	// OldestPending returns the earliest-emitted record that has no result yet.
	OldestPending(ctx context.Context) (model.SignalRecord, error)
	// ListSignals returns matching records newest first.
	ListSignals(ctx context.Context, f Filter) ([]model.SignalRecord, error)
	ResolveSignal(ctx context.Context, rec model.SignalRecord) error
	Close() error
}

func (f Filter) match(rec model.SignalRecord) bool {
	if f.Symbol != "" && rec.Symbol != f.Symbol {
		return false
	}
	return !f.PendingOnly || !rec.Resolved()
}

// barKey identifies the strategy bar a record was emitted on.
func barKey(rec model.SignalRecord) string {
	return fmt.Sprintf("%s:%d", rec.StrategyID, rec.EmittedAt.UnixNano())
}

func terminal(rec model.SignalRecord) error {
	if !rec.Resolved() {
		return fmt.Errorf("%w: signal %s resolved without a result", model.ErrMalformedInput, rec.ID)
	}
	return nil
}

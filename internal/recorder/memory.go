package recorder

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"SignalSentinel/internal/model"
)

// MemoryRecorder keeps records in process memory. Used when no database is configured and in tests.
type MemoryRecorder struct {
	mu      sync.Mutex
	records map[string]model.SignalRecord
	bars    map[string]string // barKey -> id
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		records: make(map[string]model.SignalRecord),
		bars:    make(map[string]string),
	}
}

func (m *MemoryRecorder) RecordSignal(_ context.Context, rec model.SignalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrDuplicateSignal)
	}
	bar := barKey(rec)
	if id, ok := m.bars[bar]; ok {
		return fmt.Errorf("signal %s on bar of %s: %w", rec.ID, id, model.ErrDuplicateSignal)
	}
	m.records[rec.ID] = rec
	m.bars[bar] = rec.ID
	return nil
}

func (m *MemoryRecorder) GetSignal(_ context.Context, id string) (model.SignalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return model.SignalRecord{}, fmt.Errorf("signal %s: %w", id, model.ErrNotFound)
	}
	return rec, nil
}

func (m *MemoryRecorder) OldestPending(ctx context.Context) (model.SignalRecord, error) {
	recs, _ := m.ListSignals(ctx, Filter{PendingOnly: true})
	if len(recs) == 0 {
		return model.SignalRecord{}, fmt.Errorf("pending signal: %w", model.ErrNotFound)
	}
	return recs[len(recs)-1], nil
}

func (m *MemoryRecorder) ListSignals(_ context.Context, f Filter) ([]model.SignalRecord, error) {
	m.mu.Lock()
	out := make([]model.SignalRecord, 0, len(m.records))
	for _, rec := range m.records {
		if f.match(rec) {
			out = append(out, rec)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EmittedAt.Equal(out[j].EmittedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].EmittedAt.After(out[j].EmittedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryRecorder) ResolveSignal(_ context.Context, rec model.SignalRecord) error {
	if err := terminal(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[rec.ID]
	if !ok {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrNotFound)
	}
	if cur.Resolved() {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrAlreadyResolved)
	}
	cur.Result = rec.Result
	cur.ExitPrice = rec.ExitPrice
	cur.PnL = rec.PnL
	cur.VerifiedAt = rec.VerifiedAt
	m.records[rec.ID] = cur
	return nil
}

func (m *MemoryRecorder) Close() error { return nil }

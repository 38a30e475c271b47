package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"

	"github.com/rs/zerolog"
)

// windowBars is how many bars are requested from the emission bar onward; one
// later bar settles a record, the rest absorb gaps in the provider's data.
const windowBars = 5

// Store is the part of the recorder the service needs.
type Store interface {
	GetSignal(ctx context.Context, id string) (model.SignalRecord, error)
	OldestPending(ctx context.Context) (model.SignalRecord, error)
	ResolveSignal(ctx context.Context, rec model.SignalRecord) error
}

// SeriesSource returns up to count bars opening at or after since.
type SeriesSource interface {
	FetchSince(ctx context.Context, symbol string, intervalMinutes int, since time.Time, count int) (*model.PriceSeries, error)
}

// Outcome describes one verification attempt.
type Outcome struct {
	Record  model.SignalRecord
	Settled bool // the record is terminal
	Written bool // this call stored the result
}

// Service loads pending records, verifies them against fresh bars and stores the
// result with the store's check-and-set. Several services may share one store.
type Service struct {
	store   Store
	source  SeriesSource
	metrics *metrics.Metrics
	log     zerolog.Logger

	now func() time.Time
}

func NewService(store Store, source SeriesSource, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		source:  source,
		metrics: m,
		log:     log.With().Str("component", "verifier").Logger(),
		now:     time.Now,
	}
}

// VerifyOldest verifies the earliest pending record. It returns model.ErrNotFound
// when nothing is pending.
func (s *Service) VerifyOldest(ctx context.Context) (Outcome, error) {
	rec, err := s.store.OldestPending(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return s.verify(ctx, rec)
}

func (s *Service) VerifyByID(ctx context.Context, id string) (Outcome, error) {
	rec, err := s.store.GetSignal(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	return s.verify(ctx, rec)
}

func (s *Service) verify(ctx context.Context, rec model.SignalRecord) (Outcome, error) {
	if rec.Resolved() {
		return Outcome{Record: rec, Settled: true}, nil
	}

	var series *model.PriceSeries
	if rec.Kind.Tradable() {
		var err error
		series, err = s.fetch(ctx, rec)
		if errors.Is(err, model.ErrInsufficientData) {
			return s.deferred(rec), nil
		}
		if err != nil {
			return Outcome{Record: rec}, err
		}
	}

	out, done, err := Verify(rec, series)
	if err != nil {
		return Outcome{Record: rec}, err
	}
	if !done {
		return s.deferred(rec), nil
	}

	out.VerifiedAt = s.now().UTC()
	err = s.store.ResolveSignal(ctx, out)
	if errors.Is(err, model.ErrAlreadyResolved) {
		s.metrics.Conflict()
		stored, getErr := s.store.GetSignal(ctx, rec.ID)
		if getErr != nil {
			return Outcome{Record: out, Settled: true}, getErr
		}
		s.log.Debug().Str("id", rec.ID).Str("result", string(stored.Result)).Msg("already resolved elsewhere")
		return Outcome{Record: stored, Settled: true}, nil
	}
	if err != nil {
		return Outcome{Record: rec}, fmt.Errorf("store result for %s: %w", rec.ID, err)
	}

	s.metrics.Verified(string(out.Result))
	s.log.Info().
		Str("id", out.ID).
		Str("symbol", out.Symbol).
		Str("kind", string(out.Kind)).
		Str("result", string(out.Result)).
		Float64("entry", out.EntryPrice).
		Float64("exit", out.ExitPrice).
		Float64("pnl", out.PnL).
		Msg("signal verified")
	return Outcome{Record: out, Settled: true, Written: true}, nil
}

func (s *Service) deferred(rec model.SignalRecord) Outcome {
	s.metrics.Deferred()
	s.log.Debug().Str("id", rec.ID).Str("symbol", rec.Symbol).Msg("no bar after emission yet, deferring")
	return Outcome{Record: rec}
}

// fetch pulls a window anchored at the emission bar, so a record stays verifiable
// however long it waited.
func (s *Service) fetch(ctx context.Context, rec model.SignalRecord) (*model.PriceSeries, error) {
	if rec.IntervalMinutes <= 0 {
		return nil, fmt.Errorf("%w: signal %s has interval %d", model.ErrMalformedInput, rec.ID, rec.IntervalMinutes)
	}
	series, err := s.source.FetchSince(ctx, rec.Symbol, rec.IntervalMinutes, rec.EmittedAt, windowBars)
	if err != nil {
		return nil, fmt.Errorf("fetch %s for %s: %w", rec.Symbol, rec.ID, err)
	}
	return series, nil
}

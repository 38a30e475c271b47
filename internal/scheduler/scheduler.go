package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"SignalSentinel/internal/config"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/strategy"
	"SignalSentinel/internal/verifier"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// SeriesSource returns the most recent count bars for a symbol.
type SeriesSource interface {
	FetchSeries(ctx context.Context, symbol string, intervalMinutes, count int) (*model.PriceSeries, error)
}

// Verifier settles pending signals.
type Verifier interface {
	VerifyOldest(ctx context.Context) (verifier.Outcome, error)
	VerifyByID(ctx context.Context, id string) (verifier.Outcome, error)
}

// Notifier delivers messages to a human.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// EvalResult is the outcome of evaluating one watch.
type EvalResult struct {
	Watch  string
	Signal model.Signal
	Record *model.SignalRecord // set when a BUY/SELL was recorded
	Err    error
}

// Scheduler manages the cron tasks and runs evaluations and verifications on demand.
type Scheduler struct {
	Cron     *cron.Cron
	Watches  config.Watches
	Source   SeriesSource
	Store    recorder.Recorder
	Verifier Verifier
	Notifier Notifier // optional
	Metrics  *metrics.Metrics
	Ctx      context.Context

	concurrency int
	now         func() time.Time
	log         zerolog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, watches config.Watches, src SeriesSource, store recorder.Recorder,
	v Verifier, n Notifier, m *metrics.Metrics, concurrency int, log zerolog.Logger) *Scheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Watches:     watches,
		Source:      src,
		Store:       store,
		Verifier:    v,
		Notifier:    n,
		Metrics:     m,
		Ctx:         ctx,
		concurrency: concurrency,
		now:         time.Now,
		log:         log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the evaluate and verify tasks.
func (s *Scheduler) RegisterAll(evaluateCron, verifyCron string) error {
	if _, err := s.Cron.AddFunc(evaluateCron, s.evaluateTask); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	if _, err := s.Cron.AddFunc(verifyCron, s.verifyTask); err != nil {
		return fmt.Errorf("register verify task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("watches", len(s.Watches)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) evaluateTask() {
	results, _ := s.EvaluateNow(s.Ctx)
	emitted, failed := tally(results)
	if failed > 0 {
		s.trySend(notifier.FormatSummary(len(results), emitted, failed))
	}
}

func (s *Scheduler) verifyTask() {
	if _, err := s.VerifyNow(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("verify run")
	}
}

// EvaluateNow evaluates the named watches, or all of them when none are named.
// Watches run concurrently; a failing watch is reported in its result and does
// not stop the others.
func (s *Scheduler) EvaluateNow(ctx context.Context, names ...string) ([]EvalResult, error) {
	watches := s.Watches
	if len(names) > 0 {
		watches = nil
		for _, name := range names {
			w, ok := s.Watches.Find(name)
			if !ok {
				return nil, fmt.Errorf("unknown watch %q: %w", name, model.ErrNotFound)
			}
			watches = append(watches, w)
		}
	}

	results := make([]EvalResult, len(watches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, w := range watches {
		g.Go(func() error {
			results[i] = s.evaluateWatch(gctx, w)
			return nil
		})
	}
	_ = g.Wait()

	emitted, failed := tally(results)
	s.log.Info().Int("watches", len(results)).Int("signals", emitted).Int("failed", failed).Msg("evaluation run finished")
	return results, nil
}

func (s *Scheduler) evaluateWatch(ctx context.Context, w config.Watch) EvalResult {
	res := EvalResult{Watch: w.Name}
	family := string(w.Strategy.Config.Family())
	start := time.Now()

	// one extra bar covers the still-forming one dropped below
	fetched, err := s.Source.FetchSeries(ctx, w.Symbol, w.IntervalMinutes, w.Bars+1)
	if err != nil {
		s.Metrics.EvaluationFailed(family)
		res.Err = err
		return res
	}
	ps, ok := fetched.Closed(s.now())
	if !ok {
		s.Metrics.EvaluationFailed(family)
		res.Err = fmt.Errorf("%w: %s has no closed bar yet", model.ErrInsufficientData, w.Symbol)
		return res
	}

	sig, err := strategy.Evaluate(ps, w.Strategy.Config)
	if err != nil {
		s.Metrics.EvaluationFailed(family)
		s.log.Error().Err(err).Str("watch", w.Name).Msg("evaluate")
		res.Err = err
		return res
	}
	res.Signal = sig
	s.Metrics.ObserveEvaluation(family, string(sig.Kind), time.Since(start))

	logEvt := s.log.Debug()
	if sig.Kind.Tradable() {
		logEvt = s.log.Info()
	}
	logEvt.Str("watch", w.Name).Str("symbol", w.Symbol).Str("kind", string(sig.Kind)).Str("reason", sig.Reason).Msg("evaluated")
	if !sig.Kind.Tradable() {
		return res
	}

	last := ps.Last()
	rec, err := model.NewSignalRecord(sig, w.Symbol, w.IntervalMinutes, w.Name, last.Close, last.Time)
	if err != nil {
		res.Err = err
		return res
	}
	err = s.Store.RecordSignal(ctx, rec)
	if errors.Is(err, model.ErrDuplicateSignal) {
		// a manual run landed on the same bar as a scheduled one
		s.log.Debug().Str("watch", w.Name).Time("bar", last.Time).Msg("signal for this bar already recorded")
		return res
	}
	if err != nil {
		res.Err = fmt.Errorf("record signal: %w", err)
		return res
	}
	res.Record = &rec
	s.trySend(notifier.FormatSignal(w.Name, rec))
	return res
}

// VerifyNow tries every pending signal, oldest first, and returns the ones it settled.
func (s *Scheduler) VerifyNow(ctx context.Context) ([]model.SignalRecord, error) {
	pending, err := s.Store.ListSignals(ctx, recorder.Filter{PendingOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list pending signals: %w", err)
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].EmittedAt.Before(pending[j].EmittedAt) })

	var (
		settled []model.SignalRecord
		errs    []error
	)
	for _, rec := range pending {
		if ctx.Err() != nil {
			break
		}
		out, err := s.Verifier.VerifyByID(ctx, rec.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("id", rec.ID).Msg("verify")
			errs = append(errs, err)
			continue
		}
		if out.Written {
			settled = append(settled, out.Record)
			s.trySend(notifier.FormatVerification(out.Record))
		}
	}
	s.Metrics.SetPending(len(pending) - len(settled))
	s.log.Info().Int("pending", len(pending)).Int("settled", len(settled)).Msg("verification run finished")
	return settled, errors.Join(errs...)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	args := fields[1:]

	switch fields[0] {
	case "/signals":
		recs, err := s.Store.ListSignals(ctx, recorder.Filter{Limit: 10})
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatSignalList(recs)
	case "/pending":
		recs, err := s.Store.ListSignals(ctx, recorder.Filter{PendingOnly: true, Limit: 10})
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatSignalList(recs)
	case "/evaluate":
		results, err := s.EvaluateNow(ctx, args...)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		emitted, failed := tally(results)
		return notifier.FormatSummary(len(results), emitted, failed)
	case "/verify":
		var (
			out verifier.Outcome
			err error
		)
		if len(args) > 0 {
			out, err = s.Verifier.VerifyByID(ctx, args[0])
		} else {
			out, err = s.Verifier.VerifyOldest(ctx)
		}
		switch {
		case errors.Is(err, model.ErrNotFound):
			return "Nothing to verify."
		case err != nil:
			return fmt.Sprintf("❌ %v", err)
		case !out.Settled:
			return fmt.Sprintf("⏳ %s %s has no bar after emission yet.", out.Record.Kind, out.Record.Symbol)
		}
		return notifier.FormatVerification(out.Record)
	default:
		return notifier.FormatHelp()
	}
}

func tally(results []EvalResult) (emitted, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if r.Record != nil {
			emitted++
		}
	}
	return emitted, failed
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}

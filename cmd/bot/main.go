package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
	"SignalSentinel/internal/server"
	"SignalSentinel/internal/verifier"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	lg := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(lg)
	lg.Info().Str("config", cfgPath).Msg("SignalSentinel starting")

	if err := cfg.Validate(); err != nil {
		lg.Fatal().Err(err).Msg("config validation")
	}

	m := metrics.NewMetrics()
	col := collector.NewCollector(newFetcher(cfg), m, lg)
	lg.Info().Str("source", col.Fetcher.Name()).Msg("data source ready")

	store, err := newRecorder(cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("init recorder")
	}
	defer store.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := verifier.NewService(store, col, m, lg)

	var (
		tn   *notifier.TelegramNotifier
		note scheduler.Notifier
	)
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, lg)
		note = tn
	} else {
		lg.Warn().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, cfg.Watches, col, store, svc, note, m, cfg.Schedule.Concurrency, lg)
	if err := sched.RegisterAll(cfg.Schedule.EvaluateCron, cfg.Schedule.VerifyCron); err != nil {
		lg.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		lg.Info().Msg("telegram polling started")
	}

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Log:      lg,
		Store:    store,
		Runner:   sched,
		Verifier: svc,
		Metrics:  m,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	if os.Getenv("RUN_ON_START") == "true" {
		lg.Info().Msg("RUN_ON_START enabled, evaluating all watches now")
		go sched.EvaluateNow(ctx)
	}

	lg.Info().Int("watches", len(cfg.Watches)).Msg("SignalSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		lg.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	lg.Info().Msg("SignalSentinel stopped")
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Price: cfg.DataSource.MockPrice}
	default:
		return collector.NewTwelveDataFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	}
}

func newRecorder(cfg *config.Config, lg zerolog.Logger) (recorder.Recorder, error) {
	switch cfg.Store.Driver {
	case "memory":
		lg.Warn().Msg("memory recorder: signals are lost on restart")
		return recorder.NewMemoryRecorder(), nil
	case "redis":
		r := cfg.Store.Redis
		return recorder.NewRedisRecorder(recorder.RedisConfig{
			Addr: r.Addr, Password: r.Password, DB: r.DB, Prefix: r.Prefix,
		}, lg)
	default:
		if dir := filepath.Dir(cfg.Store.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return recorder.NewSQLiteRecorder(cfg.Store.SQLitePath, lg)
	}
}

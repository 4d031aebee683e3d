package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"VCPSentinel/internal/collector"
	"VCPSentinel/internal/config"
	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/metrics"
	"VCPSentinel/internal/notifier"
	"VCPSentinel/internal/recorder"
	"VCPSentinel/internal/scheduler"
	"VCPSentinel/internal/screener"
	"VCPSentinel/internal/universe"
	"VCPSentinel/internal/watchlist"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.Config
	collector *collector.Collector
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	watchlist *watchlist.Manager
	screener  *screener.Screener
	scheduler *scheduler.Scheduler
	telegram  *notifier.TelegramNotifier
	closers   []io.Closer
}

func buildFetcher(ctx context.Context, cfg *config.Config) (collector.Fetcher, io.Closer, error) {
	var f collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderVsTrader:
		f = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case config.ProviderMock:
		f = &collector.MockFetcher{Price: 100}
	default:
		f = collector.NewYahooFetcher(cfg.Proxy)
	}
	f = collector.NewGuardedFetcher(f, cfg.Guard)
	if !cfg.Cache.Enabled {
		return f, nil, nil
	}
	if cfg.Cache.Backend == config.CacheRedis {
		cached, err := collector.NewRedisCachedFetcher(ctx, f, cfg.Cache.Redis, cfg.CacheTTL())
		if err != nil {
			return nil, nil, err
		}
		return cached, cached, nil
	}
	cached, err := collector.NewCachedFetcher(f, cfg.Cache.Dir, cfg.CacheTTL())
	if err != nil {
		return nil, nil, err
	}
	return cached, nil, nil
}

func buildRecorder(cfg *config.Config) recorder.Recorder {
	recs := recorder.Multi{}
	if cfg.Database.PostgresDSN != "" {
		pr, err := recorder.NewPostgresRecorder(cfg.Database.PostgresDSN)
		if err != nil {
			logger.Warn("init postgres recorder failed, continuing without it", zap.Error(err))
		} else {
			recs = append(recs, pr)
		}
	}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn("init sqlite recorder failed, continuing without it", zap.Error(err))
		} else {
			recs = append(recs, sr)
		}
	}
	if cfg.Results.Dir != "" {
		recs = append(recs, recorder.NewJSONFileRecorder(cfg.Results.Dir))
	}
	if len(recs) == 0 {
		return recorder.NewNoopRecorder()
	}
	return recs
}

// newApp wires the components. notify selects whether run reports reach the chat.
func newApp(ctx context.Context, cfg *config.Config, notify bool) (*app, error) {
	fetcher, closer, err := buildFetcher(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init data source: %w", err)
	}
	logger.Info("data source ready", zap.String("provider", fetcher.Name()))

	a := &app{
		cfg:       cfg,
		collector: collector.NewCollector(fetcher, cfg.DataSource.HistoricalDays),
		recorder:  buildRecorder(cfg),
		metrics:   metrics.New(),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	if cfg.Watchlist.StateFile != "" {
		if a.watchlist, err = watchlist.NewManager(cfg.Watchlist.StateFile); err != nil {
			a.close()
			return nil, err
		}
	}
	a.screener = screener.New(a.collector, cfg.Strategy, cfg.Screener, a.metrics)

	var n notifier.Notifier
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		if notify {
			n = a.telegram
		}
	} else if notify {
		n = notifier.LogNotifier{}
	}

	a.scheduler = scheduler.NewScheduler(ctx, a.screener, a.recorder, n, a.watchlist,
		func() ([]string, error) { return universe.Resolve(cfg.Universe) }, cfg.Results.Name)
	return a, nil
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		logger.Warn("close recorder", zap.Error(err))
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("close", zap.Error(err))
		}
	}
}

// healthStatus reports the last run for the /health endpoint.
func (a *app) healthStatus() map[string]interface{} {
	out := map[string]interface{}{"provider": a.cfg.DataSource.Provider}
	if run := a.scheduler.LastRun(); run != nil {
		out["last_run_id"] = run.ID
		out["last_run_finished"] = run.FinishedAt.UTC().Format(time.RFC3339)
		out["last_run_candidates"] = len(run.Candidates())
	}
	return out
}

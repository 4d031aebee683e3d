package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/model"
	"VCPSentinel/internal/notifier"
	"VCPSentinel/internal/recorder"
	"VCPSentinel/internal/screener"
	"VCPSentinel/internal/watchlist"
)

// ErrRunInProgress is returned when a universe run is requested while one is active.
var ErrRunInProgress = errors.New("a screening run is already in progress")

// maxCommandTickers caps tickers per chat command.
const maxCommandTickers = 10

// UniverseFunc resolves the tickers of a scheduled run.
type UniverseFunc func() ([]string, error)

// Scheduler manages the cron tasks and the orchestration around a run.
type Scheduler struct {
	Cron      *cron.Cron
	Screener  *screener.Screener
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
	Watchlist *watchlist.Manager
	Universe  UniverseFunc
	Name      string
	Ctx       context.Context
	Now       func() time.Time

	mu      sync.Mutex
	running bool
	lastRun *screener.Run
}

// NewScheduler creates a new Scheduler and hooks the recorder into the screener.
func NewScheduler(ctx context.Context, sc *screener.Screener, rec recorder.Recorder, n notifier.Notifier, wl *watchlist.Manager, universe UniverseFunc, name string) *Scheduler {
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Screener:  sc,
		Recorder:  rec,
		Notifier:  n,
		Watchlist: wl,
		Universe:  universe,
		Name:      name,
		Ctx:       ctx,
		Now:       time.Now,
	}
	sc.OnStart(func(run *screener.Run, symbols []string) {
		info := runInfo(run)
		info.Tickers = len(symbols)
		if err := s.Recorder.BeginRun(info); err != nil {
			logger.Named("scheduler").Error("record run start", zap.String("run_id", run.ID), zap.Error(err))
		}
	})
	sc.OnResult(func(run *screener.Run, res *model.ScreenResult) {
		if err := s.Recorder.RecordResult(run.ID, res); err != nil {
			logger.Named("scheduler").Error("record result",
				zap.String("run_id", run.ID), zap.String("ticker", res.Symbol), zap.Error(err))
		}
	})
	return s
}

// RegisterAll registers the full daily scan and the optional quick scan.
func (s *Scheduler) RegisterAll(fullCron, quickCron string) error {
	if _, err := s.Cron.AddFunc(fullCron, func() { s.scheduledTask(model.ModeFull) }); err != nil {
		return fmt.Errorf("register full scan task: %w", err)
	}
	if quickCron != "" {
		if _, err := s.Cron.AddFunc(quickCron, func() { s.scheduledTask(model.ModeQuick) }); err != nil {
			return fmt.Errorf("register quick scan task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Named("scheduler").Info("scheduler started", zap.Int("tasks", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Named("scheduler").Info("scheduler stopped")
}

// LastRun returns the most recent finished run, if any.
func (s *Scheduler) LastRun() *screener.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) scheduledTask(mode model.ScreenMode) {
	if _, err := s.RunUniverse(s.Ctx, mode); err != nil {
		logger.Named("scheduler").Error("scheduled scan failed", zap.String("mode", string(mode)), zap.Error(err))
		if !errors.Is(err, ErrRunInProgress) {
			s.trySend(fmt.Sprintf("❌ Scheduled %s scan failed: %v", mode, err))
		}
	}
}

// RunUniverse screens the configured universe, then records, updates the
// watchlist and notifies. Only one universe run is active at a time.
func (s *Scheduler) RunUniverse(ctx context.Context, mode model.ScreenMode) (*screener.Run, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	symbols, err := s.Universe()
	if err != nil {
		return nil, fmt.Errorf("resolve universe: %w", err)
	}
	return s.RunSymbols(ctx, s.Name, symbols, mode)
}

// RunSymbols screens symbols as of today and finishes the run.
func (s *Scheduler) RunSymbols(ctx context.Context, name string, symbols []string, mode model.ScreenMode) (*screener.Run, error) {
	log := logger.Named("scheduler")
	run, err := s.Screener.Run(ctx, name, symbols, mode, model.Day(s.Now()))
	if run == nil {
		return nil, err
	}

	info := runInfo(run)
	info.Tickers = len(symbols)
	info.Candidates = len(run.Candidates())
	info.Failures = len(run.Failures())
	if rerr := s.Recorder.FinishRun(info); rerr != nil {
		log.Error("record run finish", zap.String("run_id", run.ID), zap.Error(rerr))
	}

	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
	if err != nil {
		return run, err
	}

	report := &notifier.RunReport{
		Name:       run.Name,
		Mode:       run.Mode,
		AsOf:       run.AsOf,
		Screened:   len(run.Results),
		Failures:   info.Failures,
		Elapsed:    run.FinishedAt.Sub(run.StartedAt),
		Candidates: run.Candidates(),
	}
	if s.Watchlist != nil && mode == model.ModeFull {
		change, werr := s.Watchlist.Apply(run.FinishedAt, run.Results)
		if werr != nil {
			log.Error("update watchlist", zap.Error(werr))
		}
		report.Change = &change
	}
	s.trySend(notifier.FormatRunReport(report))
	return run, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Telegram appends the bot name in groups: /scan@VCPBot.
	verb := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
	args := fields[1:]

	switch verb {
	case "/scan", "/quick":
		if len(args) == 0 {
			return "Usage: " + verb + " TICKER [TICKER…]"
		}
		if len(args) > maxCommandTickers {
			return fmt.Sprintf("At most %d tickers per command.", maxCommandTickers)
		}
		mode := model.ModeFull
		if verb == "/quick" {
			mode = model.ModeQuick
		}
		asOf := model.Day(s.Now())
		replies := make([]string, 0, len(args))
		for _, sym := range args {
			res := s.Screener.ScreenOne(ctx, strings.ToUpper(sym), mode, asOf)
			replies = append(replies, notifier.FormatResult(res))
		}
		return strings.Join(replies, "\n")
	case "/run":
		go func() {
			if _, err := s.RunUniverse(s.Ctx, model.ModeFull); err != nil {
				logger.Named("scheduler").Warn("manual run failed", zap.Error(err))
				s.trySend(fmt.Sprintf("❌ Run failed: %v", err))
			}
		}()
		return "⏳ Universe scan started."
	case "/candidates":
		rows, err := s.Recorder.LatestCandidates(30)
		if err != nil {
			return fmt.Sprintf("❌ Could not load candidates: %v", err)
		}
		return notifier.FormatCandidates(rows)
	case "/watchlist":
		if s.Watchlist == nil {
			return "Watchlist is disabled."
		}
		return notifier.FormatWatchlist(s.Watchlist.Entries(), s.Watchlist.LastRun())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		logger.Named("scheduler").Error("send notification", zap.Error(err))
	}
}

func runInfo(run *screener.Run) *recorder.RunInfo {
	return &recorder.RunInfo{
		ID:         run.ID,
		Name:       run.Name,
		Mode:       run.Mode,
		AsOf:       run.AsOf,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

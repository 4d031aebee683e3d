// Package screener runs the VCP screen over a ticker universe.
package screener

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/metrics"
	"VCPSentinel/internal/model"
	"VCPSentinel/internal/strategy"
)

// Loader provides the validated history of one ticker.
type Loader interface {
	Collect(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// Warmer is implemented by loaders that can prefetch a whole batch.
type Warmer interface {
	Warm(ctx context.Context, symbols []string, workers int) int
}

// ResultHook is called once per finished ticker, from worker goroutines.
// It must not read run.Results.
type ResultHook func(run *Run, res *model.ScreenResult)

// StartHook is called once per run before any ticker is dispatched.
type StartHook func(run *Run, symbols []string)

// Options tunes a Screener.
type Options struct {
	Workers         int           `yaml:"workers"`
	Heartbeat       time.Duration `yaml:"heartbeat"`
	Prefetch        bool          `yaml:"prefetch"`
	PrefetchWorkers int           `yaml:"prefetch_workers"`
}

// DefaultOptions returns sequential screening with a 30s heartbeat.
func DefaultOptions() Options {
	return Options{Workers: 1, Heartbeat: 30 * time.Second, PrefetchWorkers: 8}
}

// Run is one screening pass over a list of tickers.
type Run struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Mode       model.ScreenMode      `json:"mode"`
	AsOf       time.Time             `json:"as_of"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Results    []*model.ScreenResult `json:"results"`
}

// Candidates returns the results that produced a signal, in input order.
func (r *Run) Candidates() []*model.ScreenResult {
	var out []*model.ScreenResult
	for _, res := range r.Results {
		if res != nil && res.Signal {
			out = append(out, res)
		}
	}
	return out
}

// Failures returns the tickers that could not be analysed.
func (r *Run) Failures() []*model.ScreenResult {
	var out []*model.ScreenResult
	for _, res := range r.Results {
		if res != nil && res.Error != "" {
			out = append(out, res)
		}
	}
	return out
}

// Screener fans tickers out to a bounded worker pool.
type Screener struct {
	loader  Loader
	params  strategy.Params
	opts    Options
	metrics *metrics.Metrics
	starts  []StartHook
	hooks   []ResultHook
	now     func() time.Time
}

// New creates a screener. m may be nil.
func New(loader Loader, params strategy.Params, opts Options, m *metrics.Metrics) *Screener {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Screener{loader: loader, params: params, opts: opts, metrics: m, now: time.Now}
}

// OnStart registers a hook invoked when a run begins.
func (s *Screener) OnStart(h StartHook) {
	s.starts = append(s.starts, h)
}

// OnResult registers a hook invoked for every finished ticker.
func (s *Screener) OnResult(h ResultHook) {
	s.hooks = append(s.hooks, h)
}

// Run screens symbols as of asOf. Results keep the order of symbols; a
// ticker that fails is reported on its result and does not stop the batch.
// Cancelling ctx stops dispatching new tickers and returns ctx.Err() along
// with the partial run.
func (s *Screener) Run(ctx context.Context, name string, symbols []string, mode model.ScreenMode, asOf time.Time) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Name:      name,
		Mode:      mode,
		AsOf:      model.Day(asOf),
		StartedAt: s.now(),
		Results:   make([]*model.ScreenResult, len(symbols)),
	}
	log := logger.Named("screener").With(zap.String("run_id", run.ID), zap.String("mode", string(mode)))
	log.Info("Starting screening run",
		zap.String("name", name),
		zap.Int("tickers", len(symbols)),
		zap.Int("workers", s.opts.Workers),
		zap.String("as_of", model.FormatDate(run.AsOf)))

	for _, h := range s.starts {
		h(run, symbols)
	}

	if w, ok := s.loader.(Warmer); ok && s.opts.Prefetch && len(symbols) > 1 {
		log.Info("Prefetching price history", zap.Int("tickers", len(symbols)))
		w.Warm(ctx, symbols, s.opts.PrefetchWorkers)
	}

	type job struct {
		idx    int
		symbol string
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				log.Info("Processing ticker",
					zap.Int("index", j.idx+1),
					zap.Int("total", len(symbols)),
					zap.String("ticker", j.symbol))
				res := s.ScreenOne(ctx, j.symbol, mode, run.AsOf)
				run.Results[j.idx] = res
				s.metrics.ObserveTicker(res)
				for _, h := range s.hooks {
					h(run, res)
				}
			}
		}()
	}

	var err error
dispatch:
	for i, sym := range symbols {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- job{idx: i, symbol: sym}:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		run.Results = compact(run.Results)
	}
	run.FinishedAt = s.now()
	candidates := len(run.Candidates())
	s.metrics.ObserveRun(mode, run.FinishedAt.Sub(run.StartedAt), candidates)
	log.Info("Screening run finished",
		zap.Int("screened", len(run.Results)),
		zap.Int("candidates", candidates),
		zap.Int("failures", len(run.Failures())),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)))
	return run, err
}

// ScreenOne loads and evaluates a single ticker. Errors and panics are
// captured on the returned result.
func (s *Screener) ScreenOne(ctx context.Context, symbol string, mode model.ScreenMode, asOf time.Time) (res *model.ScreenResult) {
	start := s.now()
	log := logger.Ticker(symbol)
	stop := s.heartbeat(symbol, start)
	defer func() {
		stop()
		if r := recover(); r != nil {
			log.Error("Ticker analysis panicked", zap.Any("panic", r))
			res = model.Failed(symbol, asOf, mode, fmt.Errorf("panic: %v", r))
		}
		res.Elapsed = s.now().Sub(start)
		log.Info("Processing complete",
			zap.Bool("signal", res.Signal),
			zap.String("error", res.Error),
			zap.Duration("elapsed", res.Elapsed))
	}()

	series, err := s.loader.Collect(ctx, symbol)
	if err != nil {
		log.Warn("Failed to load price history", zap.Error(err))
		return model.Failed(symbol, asOf, mode, err)
	}

	if mode == model.ModeQuick {
		res = strategy.QuickScreen(series, asOf, s.params)
	} else {
		res = strategy.Evaluate(series, asOf, s.params)
	}
	res.Symbol = symbol
	log.Debug("Filter results",
		zap.Bool("trend", res.Trend.Passed),
		zap.Bool("volume", res.Volume.Passed),
		zap.Bool("position", res.Position.Passed),
		zap.Bool("pivot", res.Pivot.Good),
		zap.Bool("correction_deep", res.CorrectionDeep),
		zap.Bool("demand_dry", res.DemandDry.IsDry),
		zap.Int("legs", len(res.Legs)))
	if res.Signal {
		log.Info("Ticker passes screen")
	}
	return res
}

// heartbeat logs periodically until the returned stop func is called.
func (s *Screener) heartbeat(symbol string, start time.Time) func() {
	if s.opts.Heartbeat <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(s.opts.Heartbeat)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				logger.Ticker(symbol).Info("Still processing", zap.Duration("elapsed", s.now().Sub(start)))
			}
		}
	}()
	return func() { close(done) }
}

func compact(in []*model.ScreenResult) []*model.ScreenResult {
	out := in[:0]
	for _, r := range in {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[string][]model.RawBar
	Price float64
	Err   error

	mu    sync.Mutex
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.RawBar, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return GenerateMockBars(m.Price, days, time.Now()), nil
}

// GenerateMockBars produces one bar per calendar day ending at end, drifting
// gently upward with a small oscillation.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.RawBar {
	bars := make([]model.RawBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001 + 0.02*math.Sin(float64(i)/7))
		v := 1000000.0
		c := p
		bars[i] = model.RawBar{
			Date:   end.AddDate(0, 0, -(count - 1 - i)).Format(model.DateLayout),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  &c,
			Volume: &v,
		}
	}
	return bars
}

// Collector turns fetched bars into validated price series.
type Collector struct {
	Fetcher Fetcher
	Days    int

	mu   sync.Mutex
	warm map[string][]model.RawBar
}

// NewCollector creates a new Collector fetching days calendar days of history.
func NewCollector(fetcher Fetcher, days int) *Collector {
	return &Collector{Fetcher: fetcher, Days: days, warm: make(map[string][]model.RawBar)}
}

// Warm prefetches symbols concurrently; each prefetched history is consumed
// by the next Collect of that symbol.
func (c *Collector) Warm(ctx context.Context, symbols []string, workers int) int {
	got := Prefetch(ctx, c.Fetcher, symbols, c.Days, workers)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warm == nil {
		c.warm = make(map[string][]model.RawBar, len(got))
	}
	for sym, bars := range got {
		c.warm[sym] = bars
	}
	return len(got)
}

func (c *Collector) takeWarm(symbol string) ([]model.RawBar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bars, ok := c.warm[symbol]
	if ok {
		delete(c.warm, symbol)
	}
	return bars, ok
}

// Collect fetches and validates the history of one symbol.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	raw, ok := c.takeWarm(symbol)
	if !ok {
		var err error
		raw, err = c.Fetcher.FetchDailyBars(ctx, symbol, c.Days)
		if err != nil {
			return nil, fmt.Errorf("fetch daily bars: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, model.ErrNoData)
	}
	series, err := model.NewPriceSeries(symbol, raw)
	if err != nil {
		return nil, fmt.Errorf("validate bars: %w", err)
	}
	return series, nil
}

// Prefetch fetches many symbols concurrently with at most workers requests in
// flight, so a later per-ticker Collect can hit a warm cache. Failures are
// logged and skipped.
func Prefetch(ctx context.Context, f Fetcher, symbols []string, days, workers int) map[string][]model.RawBar {
	if workers < 1 {
		workers = 1
	}
	log := logger.Named("prefetch")
	start := time.Now()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string][]model.RawBar, len(symbols))
		sem = make(chan struct{}, workers)
	)
	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			wg.Wait()
			return out
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()
			bars, err := f.FetchDailyBars(ctx, sym, days)
			if err != nil {
				log.Warn("prefetch failed", zap.String("ticker", sym), zap.Error(err))
				return
			}
			mu.Lock()
			out[sym] = bars
			mu.Unlock()
		}(sym)
	}
	wg.Wait()
	log.Info("prefetch complete",
		zap.Int("requested", len(symbols)),
		zap.Int("fetched", len(out)),
		logger.Elapsed(start))
	return out
}

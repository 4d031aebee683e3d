package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/model"
)

// GuardConfig tunes the provider protection.
type GuardConfig struct {
	RequestsPerSecond   float64       `yaml:"requests_per_second"`
	Burst               int           `yaml:"burst"`
	ConsecutiveFailures uint32        `yaml:"consecutive_failures"`
	OpenTimeout         time.Duration `yaml:"open_timeout"`
}

// GuardedFetcher throttles provider requests with a token bucket and stops
// calling a failing provider through a circuit breaker.
type GuardedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuardedFetcher wraps inner with rate limiting and a circuit breaker.
func NewGuardedFetcher(inner Fetcher, cfg GuardConfig) *GuardedFetcher {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	settings := gobreaker.Settings{
		Name:    inner.Name(),
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// A ticker without data says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrNoData) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Named("collector").Warn("provider breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &GuardedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *GuardedFetcher) Name() string { return g.inner.Name() }

// State reports the breaker state, e.g. "closed" or "open".
func (g *GuardedFetcher) State() string { return g.breaker.State().String() }

func (g *GuardedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.RawBar, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchDailyBars(ctx, symbol, days)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.RawBar), nil
}

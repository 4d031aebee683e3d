package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/model"
)

// CachedFetcher wraps a Fetcher with an on-disk cache of daily bars keyed by
// symbol and history length. Entries older than TTL are refetched. Cache
// failures are logged and never fail a fetch.
type CachedFetcher struct {
	Inner Fetcher
	Dir   string
	TTL   time.Duration
	Now   func() time.Time
}

// NewCachedFetcher creates the cache directory if needed.
func NewCachedFetcher(inner Fetcher, dir string, ttl time.Duration) (*CachedFetcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &CachedFetcher{Inner: inner, Dir: dir, TTL: ttl, Now: time.Now}, nil
}

func (c *CachedFetcher) Name() string { return c.Inner.Name() + "+cache" }

func (c *CachedFetcher) path(symbol string, days int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("%s_%d.json", strings.ToUpper(symbol), days))
}

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.RawBar, error) {
	log := logger.Named("cache").With(zap.String("ticker", symbol))
	if bars, ok := c.load(symbol, days); ok {
		log.Debug("cache hit", zap.Int("bars", len(bars)))
		return bars, nil
	}
	bars, err := c.Inner.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if err := c.Store(symbol, days, bars); err != nil {
		log.Warn("cache save failed", zap.Error(err))
	}
	return bars, nil
}

func (c *CachedFetcher) load(symbol string, days int) ([]model.RawBar, bool) {
	p := c.path(symbol, days)
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if c.Now().Sub(info.ModTime()) > c.TTL {
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	var bars []model.RawBar
	if err := json.Unmarshal(data, &bars); err != nil {
		logger.Named("cache").Debug("corrupt cache entry", zap.String("path", p), zap.Error(err))
		return nil, false
	}
	return bars, true
}

// Store writes bars for symbol into the cache, used by batch prefetch too.
func (c *CachedFetcher) Store(symbol string, days int, bars []model.RawBar) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return err
	}
	tmp := c.path(symbol, days) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(symbol, days))
}

package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"VCPSentinel/internal/logger"
	"VCPSentinel/internal/model"
)

const redisKeyPrefix = "vcpsentinel:bars:"

// RedisCachedFetcher shares the daily bar cache between processes through
// Redis. Entries expire by key TTL. Redis errors are logged and the inner
// fetcher is used instead.
type RedisCachedFetcher struct {
	Inner  Fetcher
	Client redis.Cmdable
	TTL    time.Duration
}

// RedisConfig addresses the Redis server backing the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NewRedisCachedFetcher connects to Redis and checks it answers.
func NewRedisCachedFetcher(ctx context.Context, inner Fetcher, cfg RedisConfig, ttl time.Duration) (*RedisCachedFetcher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return &RedisCachedFetcher{Inner: inner, Client: client, TTL: ttl}, nil
}

func (c *RedisCachedFetcher) Name() string { return c.Inner.Name() + "+redis" }

func redisKey(symbol string, days int) string {
	return fmt.Sprintf("%s%s:%d", redisKeyPrefix, strings.ToUpper(symbol), days)
}

func (c *RedisCachedFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.RawBar, error) {
	log := logger.Named("cache").With(zap.String("ticker", symbol))
	key := redisKey(symbol, days)

	data, err := c.Client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var bars []model.RawBar
		if uerr := json.Unmarshal([]byte(data), &bars); uerr == nil {
			log.Debug("redis cache hit", zap.Int("bars", len(bars)))
			return bars, nil
		}
		log.Debug("corrupt redis entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		log.Warn("redis get failed", zap.Error(err))
	}

	bars, err := c.Inner.FetchDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if err := c.Store(ctx, symbol, days, bars); err != nil {
		log.Warn("redis cache save failed", zap.Error(err))
	}
	return bars, nil
}

// Store writes bars for symbol with the configured TTL.
func (c *RedisCachedFetcher) Store(ctx context.Context, symbol string, days int, bars []model.RawBar) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, redisKey(symbol, days), string(data), c.TTL).Err()
}

// Close releases the Redis connection pool when the client owns one.
func (c *RedisCachedFetcher) Close() error {
	if cl, ok := c.Client.(*redis.Client); ok {
		return cl.Close()
	}
	return nil
}

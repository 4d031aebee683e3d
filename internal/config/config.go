package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"VCPSentinel/internal/collector"
	"VCPSentinel/internal/screener"
	"VCPSentinel/internal/strategy"
	"VCPSentinel/internal/universe"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Data providers.
const (
	ProviderYahoo    = "yahoo"
	ProviderVsTrader = "vstrader"
	ProviderMock     = "mock"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level       string `yaml:"level"`
		Environment string `yaml:"environment"`
	} `yaml:"log"`
	DataSource struct {
		Provider       string `yaml:"provider"`
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		HistoricalDays int    `yaml:"historical_days"`
	} `yaml:"data_source"`
	Cache struct {
		Enabled  bool                  `yaml:"enabled"`
		Backend  string                `yaml:"backend"`
		Dir      string                `yaml:"dir"`
		TTLHours int                   `yaml:"ttl_hours"`
		Redis    collector.RedisConfig `yaml:"redis"`
	} `yaml:"cache"`
	Guard    collector.GuardConfig `yaml:"guard"`
	Universe universe.Config       `yaml:"universe"`
	Screener screener.Options      `yaml:"screener"`
	Strategy strategy.Params       `yaml:"strategy"`

	Schedule struct {
		FullCron  string `yaml:"full_cron"`
		QuickCron string `yaml:"quick_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Results struct {
		Dir  string `yaml:"dir"`
		Name string `yaml:"name"`
	} `yaml:"results"`
	Watchlist struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"watchlist"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used for any field the file leaves out.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Environment = "production"
	cfg.DataSource.Provider = ProviderYahoo
	cfg.DataSource.HistoricalDays = 400
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = CacheFile
	cfg.Cache.Dir = "data/cache"
	cfg.Cache.Redis.Addr = "localhost:6379"
	cfg.Cache.TTLHours = 12
	cfg.Guard = collector.GuardConfig{
		RequestsPerSecond:   2,
		Burst:               4,
		ConsecutiveFailures: 5,
		OpenTimeout:         time.Minute,
	}
	cfg.Universe.Market = "US"
	cfg.Screener = screener.DefaultOptions()
	cfg.Strategy = strategy.DefaultParams()
	cfg.Schedule.FullCron = "0 30 22 * * 1-5"
	cfg.Database.SQLitePath = "data/vcp_sentinel.db"
	cfg.Results.Dir = "results"
	cfg.Results.Name = "vcp_study"
	cfg.Watchlist.StateFile = "data/watchlist.json"
	cfg.Metrics.Addr = ":9090"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A missing file is not an error. A .env
// file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

func (c *Config) applyEnv() error {
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Environment, "ENVIRONMENT")
	setString(&c.DataSource.Provider, "DATA_PROVIDER")
	setString(&c.DataSource.BaseURL, "VSTRADER_BASE_URL")
	setString(&c.DataSource.APIKey, "VSTRADER_API_KEY")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Database.PostgresDSN, "PG_DSN")
	setString(&c.Cache.Backend, "CACHE_BACKEND")
	setString(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setString(&c.Cache.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Results.Dir, "RESULTS_DIR")
	setString(&c.Schedule.FullCron, "CRON_FULL")
	setString(&c.Universe.Market, "UNIVERSE_MARKET")
	setString(&c.Universe.File, "UNIVERSE_FILE")
	setString(&c.Metrics.Addr, "METRICS_ADDR")
	setString(&c.Proxy, "HTTPS_PROXY")

	var errs []error
	errs = append(errs,
		setInt(&c.DataSource.HistoricalDays, "HISTORICAL_DAYS"),
		setInt(&c.Cache.TTLHours, "CACHE_TTL_HOURS"),
		setInt(&c.Cache.Redis.DB, "REDIS_DB"),
		setInt(&c.Screener.PrefetchWorkers, "PREFETCH_WORKERS"),
		setInt(&c.Screener.Workers, "SCREENER_WORKERS"),
		setBool(&c.Screener.Prefetch, "PREFETCH"),
		setBool(&c.Cache.Enabled, "CACHE_ENABLED"),
	)
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		*dst = true
	case "0", "false", "no":
		*dst = false
	default:
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return nil
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// TelegramEnabled reports whether chat delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderVsTrader:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider %q", ProviderVsTrader)
		}
	default:
		return fmt.Errorf("data_source.provider must be one of yahoo, vstrader, mock, got %q", c.DataSource.Provider)
	}
	if c.DataSource.HistoricalDays < 365 {
		return fmt.Errorf("data_source.historical_days must cover a year, got %d", c.DataSource.HistoricalDays)
	}
	if c.Cache.Enabled {
		if c.Cache.TTLHours <= 0 {
			return fmt.Errorf("cache.ttl_hours must be positive when the cache is enabled")
		}
		switch c.Cache.Backend {
		case CacheFile:
			if c.Cache.Dir == "" {
				return fmt.Errorf("cache.dir is required for the file cache")
			}
		case CacheRedis:
			if c.Cache.Redis.Addr == "" {
				return fmt.Errorf("cache.redis.addr is required for the redis cache")
			}
		default:
			return fmt.Errorf("cache.backend must be file or redis, got %q", c.Cache.Backend)
		}
	}
	if c.Screener.Workers < 1 {
		return fmt.Errorf("screener.workers must be positive, got %d", c.Screener.Workers)
	}
	if c.Screener.Prefetch && c.Screener.PrefetchWorkers < 1 {
		return fmt.Errorf("screener.prefetch_workers must be positive when prefetch is on")
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	return nil
}

// ValidateServe additionally checks what the long-running service needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Schedule.FullCron); err != nil {
		return fmt.Errorf("schedule.full_cron: %w", err)
	}
	if c.Schedule.QuickCron != "" {
		if _, err := parser.Parse(c.Schedule.QuickCron); err != nil {
			return fmt.Errorf("schedule.quick_cron: %w", err)
		}
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required with telegram.bot_token")
	}
	return nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// tracing
	HoneycombTracingEnabled bool `toml:"honeycomb_tracing_enabled"`

	// auth
	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	// analytics profile overrides; zero values keep the defaults
	SMAWindowDays          int     `toml:"sma_window_days"`
	EMAWindowDays          int     `toml:"ema_window_days"`
	PlateauMinDurationDays int     `toml:"plateau_min_duration_days"`
	PlateauWeeklyRateLimit float64 `toml:"plateau_weekly_rate_limit"`
	TrendChangeWindowDays  int     `toml:"trend_change_window_days"`
	TrendChangeWeeklyLimit float64 `toml:"trend_change_weekly_limit"`

	// dashboard snapshot cache TTL in seconds; zero disables caching
	SnapshotCacheTTLSeconds int `toml:"snapshot_cache_ttl_seconds"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development", "ddev", "dockerdev":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var conf Toml
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}

	cfg, err := conf.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not set", env)
	}

	cfg.Environment = env
	return cfg, nil
}

package config

import (
	"fmt"
	"os"
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

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// requests per minute per client, for the chart endpoints
	ChartsRateLimitAllowedPerMin int `toml:"charts_rate_limit_allowed_per_min"`

	// how long the chart responses are cached in redis, in seconds;
	// zero disables the cache
	ChartsCacheTTLSeconds int `toml:"charts_cache_ttl_seconds"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	configData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := LoadFromBytes(env, configData)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func LoadFromBytes(env string, configData []byte) (*Config, error) {
	var configs Toml
	if err := toml.Unmarshal(configData, &configs); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg, err := configs.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] is empty", env)
	}

	cfg.Environment = env

	// env var overrides, handy in docker setups
	if pgHost := os.Getenv("BODYSTATS_POSTGRES_HOST"); pgHost != "" {
		cfg.PostgresHost = pgHost
	}
	if pgPort := os.Getenv("BODYSTATS_POSTGRES_PORT"); pgPort != "" {
		cfg.PostgresPort = pgPort
	}
	if redisHost := os.Getenv("BODYSTATS_REDIS_HOST"); redisHost != "" {
		cfg.RedisHost = redisHost
	}
	if redisPort := os.Getenv("BODYSTATS_REDIS_PORT"); redisPort != "" {
		cfg.RedisPort = redisPort
	}

	return cfg, nil
}

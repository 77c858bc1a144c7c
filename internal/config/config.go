package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver       string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL  string      `yaml:"database_url" mapstructure:"database_url"`
	MaxConns     int32       `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns     int32       `yaml:"min_conns" mapstructure:"min_conns"`
	ConnectRetry RetryConfig `yaml:"connect_retry" mapstructure:"connect_retry"`
}

// RetryConfig bounds how long startup waits for the database.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port                int             `yaml:"port" mapstructure:"port"`
	MaxBodyBytes        int64           `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ShutdownTimeoutSecs int             `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
	RateLimit           RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS                CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig configures the per-client token bucket. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64          `yaml:"rps" mapstructure:"rps"`
	Burst int              `yaml:"burst" mapstructure:"burst"`
	Stats LimitStatsConfig `yaml:"stats" mapstructure:"stats"`
}

// LimitStatsConfig configures Redis counters for rate limit decisions.
// An empty RedisURL disables them.
type LimitStatsConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EMPLOYEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "employees.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("store.connect_retry.max_attempts", 5)
	v.SetDefault("store.connect_retry.initial_backoff_ms", 250)
	v.SetDefault("store.connect_retry.max_backoff_ms", 5000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.rate_limit.rps", 20)
	v.SetDefault("server.rate_limit.burst", 40)
	v.SetDefault("server.rate_limit.stats.prefix", "employee-contacts:ratelimit")
	v.SetDefault("server.rate_limit.stats.ttl_hours", 24)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is the command name;
// "serve" additionally checks the server section.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres, got "+c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
		if c.Server.MaxBodyBytes <= 0 {
			problems = append(problems, "server.max_body_bytes must be positive")
		}
		if c.Server.RateLimit.RPS > 0 && c.Server.RateLimit.Burst <= 0 {
			problems = append(problems, "server.rate_limit.burst must be positive when rps is set")
		}
		if c.Server.RateLimit.Stats.RedisURL != "" && c.Server.RateLimit.RPS <= 0 {
			problems = append(problems, "server.rate_limit.stats requires rate limiting to be enabled")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

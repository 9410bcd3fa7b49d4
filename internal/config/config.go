/*
Package config loads server configuration.

PRECEDENCE:
  defaults < environment (MEDEVAC_*) < command-line flags

ENVIRONMENT:
  MEDEVAC_PORT              HTTP port (8080)
  MEDEVAC_DRIVER            memory | sqlite | postgres (sqlite)
  MEDEVAC_DB                SQLite path or Postgres DSN (medevac.db)
  MEDEVAC_POSTS             YAML seed file for the post table
  MEDEVAC_PERDIEM_URL       Per-diem service base URL; empty disables it
  MEDEVAC_REFRESH_INTERVAL  Post refresh interval, e.g. "6h"
  MEDEVAC_REDIS_ADDR        Redis for obligation sequences; empty uses the store
  MEDEVAC_REDIS_PASSWORD
  MEDEVAC_REDIS_DB
  MEDEVAC_LOG_LEVEL         debug | info | warn | error
  MEDEVAC_LOG_FORMAT        json | console
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPrefix   = "MEDEVAC"
	ServiceName = "medevac-engine"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// RedisConfig is the optional Redis connection for obligation sequences.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadFromEnv reads PREFIX_ADDR, PREFIX_PASSWORD and PREFIX_DB.
func (c *RedisConfig) LoadFromEnv(prefix string) {
	if addr := os.Getenv(prefix + "_ADDR"); addr != "" {
		c.Addr = addr
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		c.Password = password
	}
	if db := os.Getenv(prefix + "_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.DB = n
		}
	}
}

// Config is the full server configuration.
type Config struct {
	Port            int
	Driver          string
	DB              string
	PostsFile       string
	PerDiemURL      string
	RefreshInterval time.Duration
	Redis           RedisConfig
	LogLevel        string
	LogFormat       string
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Port:            8080,
		Driver:          DriverSQLite,
		DB:              "medevac.db",
		RefreshInterval: 6 * time.Hour,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// LoadFromEnv overlays MEDEVAC_* variables. Unparseable numbers and
// durations are errors.
func (c *Config) LoadFromEnv(prefix string) error {
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: %s_PORT=%q", ErrInvalidConfig, prefix, port)
		}
		c.Port = n
	}
	if v := os.Getenv(prefix + "_DRIVER"); v != "" {
		c.Driver = v
	}
	if v := os.Getenv(prefix + "_DB"); v != "" {
		c.DB = v
	}
	if v := os.Getenv(prefix + "_POSTS"); v != "" {
		c.PostsFile = v
	}
	if v := os.Getenv(prefix + "_PERDIEM_URL"); v != "" {
		c.PerDiemURL = v
	}
	if v := os.Getenv(prefix + "_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s_REFRESH_INTERVAL=%q", ErrInvalidConfig, prefix, v)
		}
		c.RefreshInterval = d
	}
	if v := os.Getenv(prefix + "_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(prefix + "_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	c.Redis.LoadFromEnv(prefix + "_REDIS")
	return nil
}

// Load builds the configuration from defaults, the environment and args
// (os.Args[1:] in main).
func Load(args []string) (*Config, error) {
	cfg := Default()
	if err := cfg.LoadFromEnv(EnvPrefix); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet(ServiceName, flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	fs.StringVar(&cfg.Driver, "driver", cfg.Driver, "Case store: memory, sqlite or postgres")
	fs.StringVar(&cfg.DB, "db", cfg.DB, "SQLite database path or Postgres DSN")
	fs.StringVar(&cfg.PostsFile, "posts", cfg.PostsFile, "YAML file seeding the post table")
	fs.StringVar(&cfg.PerDiemURL, "perdiem-url", cfg.PerDiemURL, "Per-diem service base URL")
	fs.DurationVar(&cfg.RefreshInterval, "refresh-interval", cfg.RefreshInterval, "Post table refresh interval")
	fs.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "Redis address for obligation sequences")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, c.Driver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.Driver != DriverMemory && c.DB == "" {
		return fmt.Errorf("%w: -db is required for driver %s", ErrInvalidConfig, c.Driver)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%w: refresh interval must be positive", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath              = "configs/config.yaml"
	defaultSQLitePath        = "data/goeat.db"
	defaultStatusIntervalMs  = 300000
	defaultWatchIntervalSecs = 30
)

type Config struct {
	Server struct {
		Address         string `yaml:"address"`
		ShutdownSeconds int    `yaml:"shutdown_seconds"`
		// TrustedProxies may set the client IP through X-Forwarded-For.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // sqlite3 | postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cache struct {
		Backend string `yaml:"backend"` // memory | redis
	} `yaml:"cache"`

	Auth struct {
		JWTSecret   string `yaml:"jwt_secret"`
		Issuer      string `yaml:"issuer"`
		AdminAPIKey string `yaml:"admin_api_key"`
	} `yaml:"auth"`

	Schedule struct {
		Timezone             string `yaml:"timezone"`
		RepairIntervalMs     int    `yaml:"repair_interval_ms"`
		CacheFlushIntervalMs int    `yaml:"cache_flush_interval_ms"`
	} `yaml:"schedule"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Seed struct {
		PartnersPath         string `yaml:"partners_path"`
		WatchIntervalSeconds int    `yaml:"watch_interval_seconds"`
	} `yaml:"seed"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads the YAML config at path, expanding ${ENV_VAR} placeholders.
// A .env file next to the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Database.Driver == "sqlite3" && !strings.HasPrefix(cfg.Database.DSN, "file::memory:") {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite3" {
		c.Database.DSN = defaultSQLitePath
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "goeat-api"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = "backups"
	}
}

// Validate checks the fields that have no usable default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("database.driver: unsupported driver '%s'", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
	}

	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend: unsupported backend '%s'", c.Cache.Backend)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("schedule.timezone: %w", err)
		}
	}

	if c.Backup.Enabled && c.Database.Driver != "sqlite3" {
		return fmt.Errorf("backup.enabled is only supported for sqlite3")
	}
	return nil
}

// Location returns the zone used to evaluate schedules, UTC when unset.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) RepairInterval() time.Duration {
	if c.Schedule.RepairIntervalMs <= 0 {
		return defaultStatusIntervalMs * time.Millisecond
	}
	return time.Duration(c.Schedule.RepairIntervalMs) * time.Millisecond
}

func (c *Config) CacheFlushInterval() time.Duration {
	if c.Schedule.CacheFlushIntervalMs <= 0 {
		return defaultStatusIntervalMs * time.Millisecond
	}
	return time.Duration(c.Schedule.CacheFlushIntervalMs) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

func (c *Config) SeedWatchInterval() time.Duration {
	if c.Seed.WatchIntervalSeconds <= 0 {
		return defaultWatchIntervalSecs * time.Second
	}
	return time.Duration(c.Seed.WatchIntervalSeconds) * time.Second
}

// PublicRateLimit returns requests per second and burst for unauthenticated routes.
func (c *Config) PublicRateLimit() (float64, int) {
	rps := c.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}
	burst := c.RateLimit.Burst
	if burst <= 0 {
		burst = 40
	}
	return rps, burst
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) BackupRetention() time.Duration {
	if c.Backup.RetentionDays <= 0 {
		return 14 * 24 * time.Hour
	}
	return time.Duration(c.Backup.RetentionDays) * 24 * time.Hour
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// EnvLocksBackend selects the per-document lock backend.
	EnvLocksBackend = "LOCKS_BACKEND"

	// EnvLocksRedisAddr overrides the redis address.
	EnvLocksRedisAddr = "LOCKS_REDIS_ADDR"

	// EnvLocksRedisPassword overrides the redis password.
	EnvLocksRedisPassword = "LOCKS_REDIS_PASSWORD"

	// EnvLocksRedisDB overrides the redis database index.
	EnvLocksRedisDB = "LOCKS_REDIS_DB"

	// EnvLocksTTL overrides how long a redis lock is held before it expires.
	EnvLocksTTL = "LOCKS_TTL"
)

// Per-document lock backends.
const (
	LocksLocal = "local"
	LocksRedis = "redis"
)

// LocksConfig contains per-document lock configuration.
type LocksConfig struct {
	Backend       string `toml:"backend"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// TTL bounds how long a crashed holder can block a document.
	TTL string `toml:"ttl"`

	RetryInterval string `toml:"retry_interval"`
}

// TTLDuration parses and returns the lock TTL as a time.Duration.
func (c *LocksConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// RetryIntervalDuration parses and returns the acquire retry interval as a time.Duration.
func (c *LocksConfig) RetryIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryInterval)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the locks configuration.
func (c *LocksConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *LocksConfig) Merge(overlay *LocksConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.RedisAddr != "" {
		c.RedisAddr = overlay.RedisAddr
	}
	if overlay.RedisPassword != "" {
		c.RedisPassword = overlay.RedisPassword
	}
	if overlay.RedisDB != 0 {
		c.RedisDB = overlay.RedisDB
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.RetryInterval != "" {
		c.RetryInterval = overlay.RetryInterval
	}
}

func (c *LocksConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = LocksLocal
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.TTL == "" {
		c.TTL = "30s"
	}
	if c.RetryInterval == "" {
		c.RetryInterval = "50ms"
	}
}

func (c *LocksConfig) loadEnv() {
	if v := os.Getenv(EnvLocksBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvLocksRedisAddr); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv(EnvLocksRedisPassword); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv(EnvLocksRedisDB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv(EnvLocksTTL); v != "" {
		c.TTL = v
	}
}

func (c *LocksConfig) validate() error {
	switch c.Backend {
	case LocksLocal, LocksRedis:
	default:
		return fmt.Errorf("unknown backend: %s (must be local or redis)", c.Backend)
	}
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	retry, err := time.ParseDuration(c.RetryInterval)
	if err != nil {
		return fmt.Errorf("invalid retry_interval: %w", err)
	}
	if retry <= 0 {
		return fmt.Errorf("retry_interval must be positive")
	}
	return nil
}

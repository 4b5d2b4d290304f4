package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	// EnvPostgresHost overrides the postgres host address.
	EnvPostgresHost = "RECORDS_POSTGRES_HOST"

	// EnvPostgresPort overrides the database port.
	EnvPostgresPort = "RECORDS_POSTGRES_PORT"

	// EnvPostgresName overrides the database name.
	EnvPostgresName = "RECORDS_POSTGRES_NAME"

	// EnvPostgresUser overrides the database user.
	EnvPostgresUser = "RECORDS_POSTGRES_USER"

	// EnvPostgresPassword overrides the database password.
	EnvPostgresPassword = "RECORDS_POSTGRES_PASSWORD"

	// EnvPostgresMaxOpenConns overrides the maximum number of open connections.
	EnvPostgresMaxOpenConns = "RECORDS_POSTGRES_MAX_OPEN_CONNS"

	// EnvPostgresMaxIdleConns overrides the maximum number of idle connections.
	EnvPostgresMaxIdleConns = "RECORDS_POSTGRES_MAX_IDLE_CONNS"

	// EnvPostgresConnMaxLifetime overrides the connection maximum lifetime.
	EnvPostgresConnMaxLifetime = "RECORDS_POSTGRES_CONN_MAX_LIFETIME"

	// EnvPostgresConnTimeout overrides the connection timeout.
	EnvPostgresConnTimeout = "RECORDS_POSTGRES_CONN_TIMEOUT"
)

// PostgresConfig contains connection settings for the postgres record backend.
type PostgresConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// ConnMaxLifetimeDuration parses and returns the connection max lifetime as a time.Duration.
func (c *PostgresConfig) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// ConnTimeoutDuration parses and returns the connection timeout as a time.Duration.
func (c *PostgresConfig) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// DSN returns the keyword/value connection string used by the pgx stdlib driver.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		c.Host, c.Port, c.Name, c.User, c.Password,
	)
}

// MigrationURL returns the pgx5:// URL consumed by golang-migrate.
func (c *PostgresConfig) MigrationURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Finalize applies defaults, loads environment overrides, and validates the postgres configuration.
func (c *PostgresConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *PostgresConfig) Merge(overlay *PostgresConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.User != "" {
		c.User = overlay.User
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.MaxOpenConns != 0 {
		c.MaxOpenConns = overlay.MaxOpenConns
	}
	if overlay.MaxIdleConns != 0 {
		c.MaxIdleConns = overlay.MaxIdleConns
	}
	if overlay.ConnMaxLifetime != "" {
		c.ConnMaxLifetime = overlay.ConnMaxLifetime
	}
	if overlay.ConnTimeout != "" {
		c.ConnTimeout = overlay.ConnTimeout
	}
}

func (c *PostgresConfig) loadEnv() {
	if v := os.Getenv(EnvPostgresHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvPostgresPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvPostgresName); v != "" {
		c.Name = v
	}
	if v := os.Getenv(EnvPostgresUser); v != "" {
		c.User = v
	}
	if v := os.Getenv(EnvPostgresPassword); v != "" {
		c.Password = v
	}
	if v := os.Getenv(EnvPostgresMaxOpenConns); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxOpenConns = n
		}
	}
	if v := os.Getenv(EnvPostgresMaxIdleConns); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxIdleConns = n
		}
	}
	if v := os.Getenv(EnvPostgresConnMaxLifetime); v != "" {
		c.ConnMaxLifetime = v
	}
	if v := os.Getenv(EnvPostgresConnTimeout); v != "" {
		c.ConnTimeout = v
	}
}

func (c *PostgresConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "15m"
	}
	if c.ConnTimeout == "" {
		c.ConnTimeout = "5s"
	}
}

func (c *PostgresConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.User == "" {
		return fmt.Errorf("user required")
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	return nil
}

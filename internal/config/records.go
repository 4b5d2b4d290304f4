package config

import (
	"fmt"
	"os"
)

const (
	// EnvRecordsBackend selects the metadata record backend.
	EnvRecordsBackend = "RECORDS_BACKEND"

	// EnvRecordsBasePath overrides the directory used by the file backend.
	EnvRecordsBasePath = "RECORDS_BASE_PATH"
)

// Metadata record backends.
const (
	RecordsFile     = "file"
	RecordsPostgres = "postgres"
	RecordsMongo    = "mongo"
)

// RecordsConfig contains metadata store configuration.
// Only the section matching Backend is finalized and validated.
type RecordsConfig struct {
	Backend  string         `toml:"backend"`
	BasePath string         `toml:"base_path"`
	Postgres PostgresConfig `toml:"postgres"`
	Mongo    MongoConfig    `toml:"mongo"`
}

// Finalize applies defaults, loads environment overrides, and validates the records configuration.
func (c *RecordsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	switch c.Backend {
	case RecordsFile:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
		return nil
	case RecordsPostgres:
		if err := c.Postgres.Finalize(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		return nil
	case RecordsMongo:
		if err := c.Mongo.Finalize(); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown backend: %s (must be file, postgres, or mongo)", c.Backend)
	}
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *RecordsConfig) Merge(overlay *RecordsConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.Postgres.Merge(&overlay.Postgres)
	c.Mongo.Merge(&overlay.Mongo)
}

func (c *RecordsConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = RecordsFile
	}
	if c.BasePath == "" {
		c.BasePath = ".data/metadata"
	}
}

func (c *RecordsConfig) loadEnv() {
	if v := os.Getenv(EnvRecordsBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvRecordsBasePath); v != "" {
		c.BasePath = v
	}
}

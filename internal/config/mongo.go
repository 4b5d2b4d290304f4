package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// EnvMongoURI overrides the mongo connection URI.
	EnvMongoURI = "RECORDS_MONGO_URI"

	// EnvMongoDatabase overrides the mongo database name.
	EnvMongoDatabase = "RECORDS_MONGO_DATABASE"

	// EnvMongoCollection overrides the mongo collection name.
	EnvMongoCollection = "RECORDS_MONGO_COLLECTION"

	// EnvMongoConnTimeout overrides the mongo connect timeout.
	EnvMongoConnTimeout = "RECORDS_MONGO_CONN_TIMEOUT"
)

// MongoConfig contains connection settings for the mongo record backend.
type MongoConfig struct {
	URI         string `toml:"uri"`
	Database    string `toml:"database"`
	Collection  string `toml:"collection"`
	ConnTimeout string `toml:"conn_timeout"`
}

// ConnTimeoutDuration parses and returns the connect timeout as a time.Duration.
func (c *MongoConfig) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the mongo configuration.
func (c *MongoConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *MongoConfig) Merge(overlay *MongoConfig) {
	if overlay.URI != "" {
		c.URI = overlay.URI
	}
	if overlay.Database != "" {
		c.Database = overlay.Database
	}
	if overlay.Collection != "" {
		c.Collection = overlay.Collection
	}
	if overlay.ConnTimeout != "" {
		c.ConnTimeout = overlay.ConnTimeout
	}
}

func (c *MongoConfig) loadDefaults() {
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017"
	}
	if c.Database == "" {
		c.Database = "pdf_editor"
	}
	if c.Collection == "" {
		c.Collection = "documents"
	}
	if c.ConnTimeout == "" {
		c.ConnTimeout = "10s"
	}
}

func (c *MongoConfig) loadEnv() {
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.URI = v
	}
	if v := os.Getenv(EnvMongoDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvMongoCollection); v != "" {
		c.Collection = v
	}
	if v := os.Getenv(EnvMongoConnTimeout); v != "" {
		c.ConnTimeout = v
	}
}

func (c *MongoConfig) validate() error {
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return fmt.Errorf("invalid conn_timeout: %w", err)
	}
	return nil
}

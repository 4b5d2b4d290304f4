package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docker/go-units"
)

const (
	// EnvStorageBackend selects the version blob backend.
	EnvStorageBackend = "STORAGE_BACKEND"

	// EnvStorageBasePath overrides the storage base path.
	EnvStorageBasePath = "STORAGE_BASE_PATH"

	// EnvStorageMaxUploadSize overrides the maximum accepted document size.
	EnvStorageMaxUploadSize = "STORAGE_MAX_UPLOAD_SIZE"

	// EnvStorageEndpoint overrides the object store endpoint.
	EnvStorageEndpoint = "STORAGE_ENDPOINT"

	// EnvStorageBucket overrides the object store bucket.
	EnvStorageBucket = "STORAGE_BUCKET"

	// EnvStorageRegion overrides the object store region.
	EnvStorageRegion = "STORAGE_REGION"

	// EnvStorageAccessKey overrides the object store access key.
	EnvStorageAccessKey = "STORAGE_ACCESS_KEY"

	// EnvStorageSecretKey overrides the object store secret key.
	EnvStorageSecretKey = "STORAGE_SECRET_KEY"

	// EnvStorageUseSSL overrides whether the object store is reached over TLS.
	EnvStorageUseSSL = "STORAGE_USE_SSL"
)

// Version blob backends.
const (
	StorageFilesystem = "filesystem"
	StorageMinio      = "minio"
	StorageS3         = "s3"
)

// StorageConfig contains version blob storage configuration.
type StorageConfig struct {
	Backend string `toml:"backend"`

	// BasePath is the root directory for filesystem storage.
	// Default: ".data/documents"
	BasePath string `toml:"base_path"`

	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`

	MaxUploadSize    string `toml:"max_upload_size"`
	maxUploadSizeVal int64
}

// MaxUploadSizeBytes returns the parsed max_upload_size. Valid after Finalize.
func (c *StorageConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *StorageConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *StorageConfig) Merge(overlay *StorageConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.AccessKey != "" {
		c.AccessKey = overlay.AccessKey
	}
	if overlay.SecretKey != "" {
		c.SecretKey = overlay.SecretKey
	}
	if overlay.UseSSL {
		c.UseSSL = true
	}
	if size, err := units.FromHumanSize(overlay.MaxUploadSize); err == nil {
		c.MaxUploadSize = overlay.MaxUploadSize
		c.maxUploadSizeVal = size
	}
}

func (c *StorageConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = StorageFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".data/documents"
	}
	if c.Bucket == "" {
		c.Bucket = "documents"
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
}

func (c *StorageConfig) loadEnv() {
	if v := os.Getenv(EnvStorageBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvStorageBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvStorageMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvStorageEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvStorageBucket); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv(EnvStorageRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvStorageAccessKey); v != "" {
		c.AccessKey = v
	}
	if v := os.Getenv(EnvStorageSecretKey); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv(EnvStorageUseSSL); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseSSL = b
		}
	}
}

func (c *StorageConfig) validate() error {
	switch c.Backend {
	case StorageFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case StorageMinio, StorageS3:
		if c.Endpoint == "" && c.Backend == StorageMinio {
			return fmt.Errorf("endpoint required for %s backend", c.Backend)
		}
		if c.Bucket == "" {
			return fmt.Errorf("bucket required for %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend: %s (must be filesystem, minio, or s3)", c.Backend)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	return nil
}

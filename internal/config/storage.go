package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

const (
	// EnvStorageBasePath overrides the blob storage base directory.
	EnvStorageBasePath = "STORAGE_BASE_PATH"

	// EnvStorageMaxUploadSize overrides the maximum document upload size.
	EnvStorageMaxUploadSize = "STORAGE_MAX_UPLOAD_SIZE"

	// EnvStorageMaxImageSize overrides the maximum image upload size.
	EnvStorageMaxImageSize = "STORAGE_MAX_IMAGE_SIZE"
)

// StorageConfig contains blob storage configuration.
type StorageConfig struct {
	// BasePath is the root directory for filesystem storage.
	BasePath string `toml:"base_path"`

	// MaxUploadSize bounds document uploads, expressed as a human-readable size.
	MaxUploadSize string `toml:"max_upload_size"`

	// MaxImageSize bounds session image uploads, expressed as a human-readable size.
	MaxImageSize string `toml:"max_image_size"`

	maxUploadSizeVal int64
	maxImageSizeVal  int64
}

// MaxUploadSizeBytes returns the parsed maximum document upload size in bytes.
func (c *StorageConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// MaxImageSizeBytes returns the parsed maximum image upload size in bytes.
func (c *StorageConfig) MaxImageSizeBytes() int64 {
	return c.maxImageSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *StorageConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *StorageConfig) Merge(overlay *StorageConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxImageSize != "" {
		c.MaxImageSize = overlay.MaxImageSize
	}
}

func (c *StorageConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
	if c.MaxImageSize == "" {
		c.MaxImageSize = "10MB"
	}
}

func (c *StorageConfig) loadEnv() {
	if v := os.Getenv(EnvStorageBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvStorageMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvStorageMaxImageSize); v != "" {
		c.MaxImageSize = v
	}
}

func (c *StorageConfig) validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("base_path required")
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	size, err = units.FromHumanSize(c.MaxImageSize)
	if err != nil {
		return fmt.Errorf("invalid max_image_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_image_size must be positive")
	}
	c.maxImageSizeVal = size

	return nil
}

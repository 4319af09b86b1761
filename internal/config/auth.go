package config

import (
	"fmt"
	"os"
)

// EnvAuthAPIKey overrides the service-to-service API key.
const EnvAuthAPIKey = "AUTH_API_KEY"

// AuthConfig contains service-to-service authentication configuration.
type AuthConfig struct {
	// APIKey authorizes document upload and session issuance. Session-scoped
	// endpoints use per-session tokens instead.
	APIKey string `toml:"api_key"`
}

// Finalize loads environment overrides and validates the auth configuration.
func (c *AuthConfig) Finalize() error {
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
}

func (c *AuthConfig) loadEnv() {
	if v := os.Getenv(EnvAuthAPIKey); v != "" {
		c.APIKey = v
	}
}

func (c *AuthConfig) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key required")
	}
	return nil
}

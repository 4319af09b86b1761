package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// EnvWebhookTimeout overrides the webhook delivery timeout.
	EnvWebhookTimeout = "WEBHOOK_TIMEOUT"

	// EnvWebhookRetryAttempts overrides the webhook retry attempt count.
	EnvWebhookRetryAttempts = "WEBHOOK_RETRY_ATTEMPTS"
)

// WebhookConfig contains commit notification delivery configuration.
type WebhookConfig struct {
	Timeout       string `toml:"timeout"`
	RetryAttempts int    `toml:"retry_attempts"`
}

// TimeoutDuration parses and returns the delivery timeout as a time.Duration.
func (c *WebhookConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the webhook configuration.
func (c *WebhookConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *WebhookConfig) Merge(overlay *WebhookConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RetryAttempts != 0 {
		c.RetryAttempts = overlay.RetryAttempts
	}
}

func (c *WebhookConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
}

func (c *WebhookConfig) loadEnv() {
	if v := os.Getenv(EnvWebhookTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvWebhookRetryAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetryAttempts = n
		}
	}
}

func (c *WebhookConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	return nil
}

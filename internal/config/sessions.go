package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// EnvSessionsDefaultTTL overrides the default session time-to-live.
	EnvSessionsDefaultTTL = "SESSIONS_DEFAULT_TTL"

	// EnvSessionsMaxTTL overrides the maximum session time-to-live.
	EnvSessionsMaxTTL = "SESSIONS_MAX_TTL"

	// EnvSessionsCommitTimeout overrides the commit render timeout.
	EnvSessionsCommitTimeout = "SESSIONS_COMMIT_TIMEOUT"

	// EnvSessionsCleanupInterval overrides the reclamation sweep interval.
	EnvSessionsCleanupInterval = "SESSIONS_CLEANUP_INTERVAL"

	// EnvSessionsReclamationGrace overrides the grace period before
	// terminal session storage is reclaimed.
	EnvSessionsReclamationGrace = "SESSIONS_RECLAMATION_GRACE"
)

// SessionsConfig contains edit session lifecycle configuration.
type SessionsConfig struct {
	DefaultTTL       string `toml:"default_ttl"`
	MaxTTL           string `toml:"max_ttl"`
	CommitTimeout    string `toml:"commit_timeout"`
	CleanupInterval  string `toml:"cleanup_interval"`
	ReclamationGrace string `toml:"reclamation_grace"`
}

// DefaultTTLDuration parses and returns the default TTL as a time.Duration.
func (c *SessionsConfig) DefaultTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.DefaultTTL)
	return d
}

// MaxTTLDuration parses and returns the maximum TTL as a time.Duration.
func (c *SessionsConfig) MaxTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxTTL)
	return d
}

// CommitTimeoutDuration parses and returns the commit timeout as a time.Duration.
func (c *SessionsConfig) CommitTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CommitTimeout)
	return d
}

// CleanupIntervalDuration parses and returns the cleanup interval as a time.Duration.
func (c *SessionsConfig) CleanupIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.CleanupInterval)
	return d
}

// ReclamationGraceDuration parses and returns the reclamation grace as a time.Duration.
func (c *SessionsConfig) ReclamationGraceDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReclamationGrace)
	return d
}

// Finalize applies defaults, loads environment overrides, and validates the sessions configuration.
func (c *SessionsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *SessionsConfig) Merge(overlay *SessionsConfig) {
	if overlay.DefaultTTL != "" {
		c.DefaultTTL = overlay.DefaultTTL
	}
	if overlay.MaxTTL != "" {
		c.MaxTTL = overlay.MaxTTL
	}
	if overlay.CommitTimeout != "" {
		c.CommitTimeout = overlay.CommitTimeout
	}
	if overlay.CleanupInterval != "" {
		c.CleanupInterval = overlay.CleanupInterval
	}
	if overlay.ReclamationGrace != "" {
		c.ReclamationGrace = overlay.ReclamationGrace
	}
}

func (c *SessionsConfig) loadDefaults() {
	if c.DefaultTTL == "" {
		c.DefaultTTL = "24h"
	}
	if c.MaxTTL == "" {
		c.MaxTTL = "168h"
	}
	if c.CommitTimeout == "" {
		c.CommitTimeout = "2m"
	}
	if c.CleanupInterval == "" {
		c.CleanupInterval = "1h"
	}
	if c.ReclamationGrace == "" {
		c.ReclamationGrace = "1h"
	}
}

func (c *SessionsConfig) loadEnv() {
	if v := os.Getenv(EnvSessionsDefaultTTL); v != "" {
		c.DefaultTTL = v
	}
	if v := os.Getenv(EnvSessionsMaxTTL); v != "" {
		c.MaxTTL = v
	}
	if v := os.Getenv(EnvSessionsCommitTimeout); v != "" {
		c.CommitTimeout = v
	}
	if v := os.Getenv(EnvSessionsCleanupInterval); v != "" {
		c.CleanupInterval = v
	}
	if v := os.Getenv(EnvSessionsReclamationGrace); v != "" {
		c.ReclamationGrace = v
	}
}

func (c *SessionsConfig) validate() error {
	for name, value := range map[string]string{
		"default_ttl":       c.DefaultTTL,
		"max_ttl":           c.MaxTTL,
		"commit_timeout":    c.CommitTimeout,
		"cleanup_interval":  c.CleanupInterval,
		"reclamation_grace": c.ReclamationGrace,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.DefaultTTLDuration() > c.MaxTTLDuration() {
		return fmt.Errorf("default_ttl cannot exceed max_ttl")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables for API tokens
const (
	EnvJWTSecret          = "JWT_SECRET"
	EnvJWTExpirationHours = "JWT_EXPIRATION_HOURS"
)

// DefaultJWTIssuer is the issuer claim on operator tokens.
const DefaultJWTIssuer = "demand-synthesis-agent"

// JWTConfig holds configuration for operator token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: 24).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv(EnvJWTSecret)
	if secret == "" {
		return nil, missing(EnvJWTSecret)
	}

	expirationStr := os.Getenv(EnvJWTExpirationHours)
	if expirationStr == "" {
		expirationStr = "24"
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvJWTExpirationHours, err)
	}

	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
		Issuer:          DefaultJWTIssuer,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// TTL returns how long issued tokens stay valid.
func (c *JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return &ConfigError{Field: EnvJWTSecret, Message: "cannot be empty"}
	}
	if c.ExpirationHours < 1 {
		return &ConfigError{Field: EnvJWTExpirationHours, Message: fmt.Sprintf("must be at least 1 hour, got: %d", c.ExpirationHours)}
	}
	if c.Issuer == "" {
		c.Issuer = DefaultJWTIssuer
	}
	return nil
}

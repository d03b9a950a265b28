package config

import "fmt"

// ConfigError reports an invalid or missing configuration value.
//
//nolint:revive // config.ConfigError reads better at call sites than config.Error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error: '%s' %s", e.Field, e.Message)
}

func missing(name string) *ConfigError {
	return &ConfigError{Message: name + " is required"}
}

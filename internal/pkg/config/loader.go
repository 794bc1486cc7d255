// Package config provides environment-variable loading with validation and
// fail-open fallback. Loaders never return errors: an invalid value falls
// back to the supplied default and produces a warning for the caller to log,
// so a single bad variable cannot keep the sync worker from starting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one configuration value.
// Value holds the effective value (the default when fallback was applied),
// Warnings carries one message per fallback, and FallbackApplied reports
// whether the default was substituted for an invalid environment value.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func fallbackResult(envKey, raw string, reason error, defaultValue interface{}) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           defaultValue,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, reason, defaultValue)},
		FallbackApplied: true,
	}
}

// LoadEnvString returns the environment variable's value, or defaultValue
// when the variable is unset or empty. No validation is applied.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string value and validates it with the given
// validator (nil skips validation). An unset variable silently yields the
// default; a set-but-invalid one yields the default with a warning.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(envKey, value, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration loads a time.Duration from a Go duration string such as
// "30s" or "5m". Parse or validation failures fall back to the default.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallbackResult(envKey, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt loads an integer value. Parse or validation failures fall back
// to the default.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallbackResult(envKey, raw, fmt.Errorf("invalid integer format"), defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool loads a boolean value. Accepted forms are those of
// strconv.ParseBool ("1", "t", "true", "0", "f", "false" in any case
// strconv accepts); anything else falls back to the default.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallbackResult(envKey, raw, fmt.Errorf("invalid boolean format, expected 'true' or 'false'"), defaultValue)
	}
	return ConfigLoadResult{Value: parsed}
}

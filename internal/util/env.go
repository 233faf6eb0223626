// Package util holds small shared helpers.
package util

import (
	"log/slog"
	"os"
	"strconv"
)

// GetEnvOrDefault returns the environment value or the default when unset.
func GetEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBoolEnv parses a boolean environment variable, falling back to the
// default on absence or a malformed value.
func ParseBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("ParseBoolEnv: malformed value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return parsed
}

// ParseFloatEnv parses a float environment variable, falling back to the
// default on absence or a malformed value.
func ParseFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ParseFloatEnv: malformed value, using default", "key", key, "value", v, "default", def)
		return def
	}
	return parsed
}

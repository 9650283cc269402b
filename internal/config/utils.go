package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup reads key from the environment and parses it, falling back to the
// default when the variable is unset or malformed.
func lookup[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := parse(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	return lookup(key, fallback, func(raw string) (string, error) { return raw, nil })
}

func getEnvAsInt(key string, fallback int) int {
	return lookup(key, fallback, strconv.Atoi)
}

func getEnvAsBool(key string, fallback bool) bool {
	return lookup(key, fallback, strconv.ParseBool)
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	return lookup(key, fallback, time.ParseDuration)
}

func getEnvAsStringSlice(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}

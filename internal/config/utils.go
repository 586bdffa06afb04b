package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv reads ENV_FILE (default .env) without overriding variables that
// are already set. A missing file is not an error.
func loadDotEnv() {
	path := lookupEnv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	_ = godotenv.Load(path)
}

// lookupEnv returns the trimmed value of key; blank counts as unset.
func lookupEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnv(key, defaultVal string) string {
	if value := lookupEnv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(lookupEnv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(lookupEnv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(lookupEnv(key)); err == nil {
		return d
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaults []string) []string {
	parts := strings.Split(lookupEnv(key), ",")
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > 0 {
		return filtered
	}
	return defaults
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the workbench settings resolved from the environment.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	HistoryLimit int
}

var (
	defaultBaseURL        = "http://localhost:8080/api"
	defaultTimeoutSeconds = 30
	defaultHistoryLimit   = 50
)

// Load reads configuration from a .env file and environment variables with defaults.
func Load() Config {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return Config{
		BaseURL:      getEnv("RESTBENCH_API_URL", defaultBaseURL),
		Timeout:      time.Duration(getEnvInt("RESTBENCH_TIMEOUT_SECONDS", defaultTimeoutSeconds)) * time.Second,
		HistoryLimit: getEnvInt("RESTBENCH_HISTORY_LIMIT", defaultHistoryLimit),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		fmt.Fprintf(os.Stderr, "Warning: invalid integer value for %s\n", key)
	}
	return defaultVal
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreREST     = "rest"
)

type Config struct {
	Port          string
	LogLevel      string
	StoreDriver   string
	DatabaseURL   string
	RestURL       string
	RestAPIKey    string
	SinkURL       string
	SinkSecret    string
	HTTPTimeout   time.Duration
	RetryAttempts int

	DefaultScalingIncrement float64
	DefaultScalingFrequency int
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "30s"))
	if err != nil {
		timeout = 30 * time.Second
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StoreDriver:   getEnv("STORE_DRIVER", StoreMemory),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RestURL:       getEnv("REST_URL", ""),
		RestAPIKey:    getEnv("REST_API_KEY", ""),
		SinkURL:       getEnv("SINK_URL", ""),
		SinkSecret:    getEnv("SINK_SECRET", ""),
		HTTPTimeout:   timeout,
		RetryAttempts: getEnvInt("RETRY_ATTEMPTS", 3),

		DefaultScalingIncrement: getEnvFloat("DEFAULT_SCALING_INCREMENT", 20),
		DefaultScalingFrequency: getEnvInt("DEFAULT_SCALING_FREQUENCY", 3),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}

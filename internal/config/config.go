// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is loaded once at startup and
// passed explicitly into constructors - there is no ambient global state.
type Config struct {
	DatabasePath string
	Port         int
	LogLevel     string
	DevMode      bool

	// Quote sources
	FinnhubAPIKey       string
	FinnhubBaseURL      string
	AlphaVantageAPIKey  string
	AlphaVantageBaseURL string
	QuoteAPIEnabled     bool
	QuoteTimeout        time.Duration

	// Price cache
	PriceCacheTTL time.Duration

	// Scheduled refresh
	RefreshInterval    time.Duration
	StalenessThreshold time.Duration
	RefreshConcurrency int
	RequestDelay       time.Duration
}

// Load reads configuration from environment variables (.env file supported).
func Load() (*Config, error) {
	// .env is optional - ignore if missing
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	concurrency, err := strconv.Atoi(getEnv("REFRESH_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_CONCURRENCY: %w", err)
	}
	if concurrency < 1 {
		concurrency = 1
	}

	cfg := &Config{
		DatabasePath: getEnv("DATABASE_PATH", "data/foliotrack.db"),
		Port:         port,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvBool("DEV_MODE", false),

		FinnhubAPIKey:       getEnv("FINNHUB_API_KEY", ""),
		FinnhubBaseURL:      getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		AlphaVantageAPIKey:  getEnv("ALPHAVANTAGE_API_KEY", ""),
		AlphaVantageBaseURL: getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co"),
		QuoteAPIEnabled:     getEnvBool("QUOTE_API_ENABLED", true),
		QuoteTimeout:        getEnvDuration("QUOTE_TIMEOUT", 5*time.Second),

		PriceCacheTTL: getEnvDuration("PRICE_CACHE_TTL", 5*time.Minute),

		RefreshInterval:    getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),
		StalenessThreshold: getEnvDuration("STALENESS_THRESHOLD", 15*time.Minute),
		RefreshConcurrency: concurrency,
		RequestDelay:       getEnvDuration("REQUEST_DELAY", 200*time.Millisecond),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

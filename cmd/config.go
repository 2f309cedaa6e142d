package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/glbter/stock-ratings/store"
)

var errMissingAPIURL = errors.New("STOCK_API_URL is empty")

type Config struct {
	StockAPIURL         string
	HTTPAddr            string
	ClientTimeout       time.Duration
	PageSize            int
	RecommendationLimit int
	RabbitURL           string
}

// LoadConfig reads the environment. A .env file, if present, has already been
// loaded by the root command.
func LoadConfig() (Config, error) {
	cfg := Config{
		StockAPIURL: os.Getenv("STOCK_API_URL"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		RabbitURL:   os.Getenv("RABBIT_URL"),
	}

	if cfg.StockAPIURL == "" {
		return Config{}, errMissingAPIURL
	}

	var err error
	if cfg.ClientTimeout, err = getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = getEnvAsInt("PAGE_SIZE", store.DefaultPageSize); err != nil {
		return Config{}, err
	}
	if cfg.RecommendationLimit, err = getEnvAsInt("RECOMMENDATION_LIMIT", store.DefaultRecommendationLimit); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("parse %s: want a positive integer, got %q", key, value)
	}

	return n, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return d, nil
}

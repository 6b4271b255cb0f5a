package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ollama-watch/reddit-fetcher/internal/output"
	"github.com/ollama-watch/reddit-fetcher/internal/reddit"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the fetcher
type Config struct {
	// Reddit credentials
	RedditUserAgent    string
	RedditClientID     string
	RedditClientSecret string
	RedditRefreshToken string

	// Endpoint overrides
	RedditAPIURL  string
	RedditAuthURL string

	// What to fetch
	Subreddit    string
	TimeWindow   reddit.TimeWindow
	ListingLimit int

	// Output and logging
	OutputFormat string
	LogFormat    string
	Debug        bool

	// Transport
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	ProxyURL           string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", reddit.DefaultUserAgent),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditRefreshToken: getEnv("REDDIT_REFRESH_TOKEN", ""),

		RedditAPIURL:  getEnv("REDDIT_API_URL", reddit.DefaultBaseURL),
		RedditAuthURL: getEnv("REDDIT_AUTH_URL", reddit.DefaultAuthURL),

		Subreddit:    getEnv("SUBREDDIT", "ollama"),
		ListingLimit: getIntEnv("LISTING_LIMIT", 25),

		OutputFormat: strings.ToLower(getEnv("OUTPUT_FORMAT", output.FormatPretty)),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Debug:        getBoolEnv("DEBUG", false),

		RequestTimeout:     time.Duration(getIntEnv("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		ProxyURL:           getEnv("PROXY_URL", ""),
	}

	window, err := reddit.ParseTimeWindow(getEnv("TIME_WINDOW", string(reddit.TimeDay)))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: TIME_WINDOW: %w", err)
	}
	cfg.TimeWindow = window

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Credentials returns the credential bundle handed to the Reddit client.
func (c *Config) Credentials() reddit.Credentials {
	return reddit.Credentials{
		UserAgent:    c.RedditUserAgent,
		ClientID:     c.RedditClientID,
		ClientSecret: c.RedditClientSecret,
		RefreshToken: c.RedditRefreshToken,
	}
}

// validate does not check credentials.
func (c *Config) validate() error {
	if strings.TrimSpace(c.Subreddit) == "" {
		return fmt.Errorf("SUBREDDIT must not be empty")
	}

	if c.ListingLimit < 1 || c.ListingLimit > 100 {
		return fmt.Errorf("LISTING_LIMIT must be between 1 and 100, got %d", c.ListingLimit)
	}

	if c.OutputFormat != output.FormatPretty && c.OutputFormat != output.FormatJSON {
		return fmt.Errorf("OUTPUT_FORMAT must be 'pretty' or 'json'")
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
		logrus.WithFields(logrus.Fields{"key": key, "value": value}).Warnf("Invalid boolean, using default %t", defaultValue)
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
		logrus.WithFields(logrus.Fields{"key": key, "value": value}).Warnf("Invalid integer, using default %d", defaultValue)
	}
	return defaultValue
}

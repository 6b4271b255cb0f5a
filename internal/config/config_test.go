package config

import (
	"testing"
	"time"

	"github.com/ollama-watch/reddit-fetcher/internal/reddit"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"REDDIT_USER_AGENT", "REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "REDDIT_REFRESH_TOKEN",
	"REDDIT_API_URL", "REDDIT_AUTH_URL", "SUBREDDIT", "TIME_WINDOW", "LISTING_LIMIT",
	"OUTPUT_FORMAT", "LOG_FORMAT", "DEBUG", "REQUEST_TIMEOUT_SECONDS", "RATE_LIMIT_PER_MINUTE", "PROXY_URL",
}

func clearEnv(t *testing.T) {
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, reddit.DefaultUserAgent, cfg.RedditUserAgent)
	assert.Equal(t, "ollama", cfg.Subreddit)
	assert.Equal(t, reddit.TimeDay, cfg.TimeWindow)
	assert.Equal(t, 25, cfg.ListingLimit)
	assert.Equal(t, "pretty", cfg.OutputFormat)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, reddit.DefaultBaseURL, cfg.RedditAPIURL)
	assert.Equal(t, reddit.DefaultAuthURL, cfg.RedditAuthURL)
	assert.Empty(t, cfg.ProxyURL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDDIT_USER_AGENT", "my-agent/2.0")
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_CLIENT_SECRET", "secret")
	t.Setenv("REDDIT_REFRESH_TOKEN", "refresh")
	t.Setenv("SUBREDDIT", "golang")
	t.Setenv("TIME_WINDOW", "Week")
	t.Setenv("LISTING_LIMIT", "100")
	t.Setenv("OUTPUT_FORMAT", "JSON")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DEBUG", "true")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("PROXY_URL", "socks5://127.0.0.1:1080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, reddit.Credentials{
		UserAgent:    "my-agent/2.0",
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
	}, cfg.Credentials())
	assert.Equal(t, "golang", cfg.Subreddit)
	assert.Equal(t, reddit.TimeWeek, cfg.TimeWindow)
	assert.Equal(t, 100, cfg.ListingLimit)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.ProxyURL)
}

func TestLoad_CredentialsNotRequired(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.RedditClientID)
	assert.Empty(t, cfg.RedditRefreshToken)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "Unknown time window", key: "TIME_WINDOW", value: "decade"},
		{name: "Limit too small", key: "LISTING_LIMIT", value: "-1"},
		{name: "Limit too large", key: "LISTING_LIMIT", value: "101"},
		{name: "Unknown output format", key: "OUTPUT_FORMAT", value: "yaml"},
		{name: "Unknown log format", key: "LOG_FORMAT", value: "logfmt"},
		{name: "Non-positive timeout", key: "REQUEST_TIMEOUT_SECONDS", value: "-5"},
		{name: "Blank subreddit", key: "SUBREDDIT", value: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "configuration validation failed")
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	t.Setenv("TEST_BOOL", "maybe")

	assert.Equal(t, 7, getIntEnv("TEST_INT", 7))
	assert.True(t, getBoolEnv("TEST_BOOL", true))
	assert.Equal(t, "fallback", getEnv("TEST_UNSET_KEY", "fallback"))
}

func TestLoad_WarnsOnInvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTING_LIMIT", "25x")
	t.Setenv("DEBUG", "maybe")

	hook := logrustest.NewGlobal()
	defer hook.Reset()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.ListingLimit)
	assert.False(t, cfg.Debug)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, logrus.WarnLevel, entry.Level)
	}
	assert.Equal(t, "LISTING_LIMIT", entries[0].Data["key"])
	assert.Equal(t, "25x", entries[0].Data["value"])
	assert.Equal(t, "Invalid integer, using default 25", entries[0].Message)
	assert.Equal(t, "DEBUG", entries[1].Data["key"])
	assert.Equal(t, "Invalid boolean, using default false", entries[1].Message)
}

func TestLoad_ValidNumbersDoNotWarn(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTING_LIMIT", "10")

	hook := logrustest.NewGlobal()
	defer hook.Reset()

	_, err := Load()
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())
}

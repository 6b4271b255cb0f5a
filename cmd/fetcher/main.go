package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ollama-watch/reddit-fetcher/internal/config"
	"github.com/ollama-watch/reddit-fetcher/internal/fetcher"
	"github.com/ollama-watch/reddit-fetcher/internal/output"
	"github.com/ollama-watch/reddit-fetcher/internal/reddit"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogging(cfg)

	printer, err := output.NewPrinter(cfg.OutputFormat, os.Stdout)
	if err != nil {
		logger.Fatalf("Failed to create printer: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	f := fetcher.New(cfg, newClientFactory(cfg, logger), printer, logger)
	if err := f.Run(ctx); err != nil {
		// Already reported by Run.
		stop()
		cancel()
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) *logrus.Logger {
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stderr)

	logger.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

func newClientFactory(cfg *config.Config, logger *logrus.Logger) fetcher.ClientFactory {
	return func(creds reddit.Credentials) (fetcher.Lister, error) {
		client, err := reddit.NewClient(creds,
			reddit.WithBaseURL(cfg.RedditAPIURL),
			reddit.WithAuthURL(cfg.RedditAuthURL),
			reddit.WithTimeout(cfg.RequestTimeout),
			reddit.WithProxy(cfg.ProxyURL),
			reddit.WithRateLimit(cfg.RateLimitPerMinute),
			reddit.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

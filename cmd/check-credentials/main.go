package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ollama-watch/reddit-fetcher/internal/config"
	"github.com/ollama-watch/reddit-fetcher/internal/reddit"
)

func main() {
	fmt.Println("🔍 Reddit Fetcher - Credential Check")
	fmt.Println("====================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		os.Exit(1)
	}
}

// run authenticates, lists one post and writes a progress report to w.
func run(ctx context.Context, cfg *config.Config, w io.Writer) error {
	fmt.Fprintln(w, "\n📡 Checking configuration...")
	fmt.Fprintln(w, strings.Repeat("-", 40))

	missing := missingCredentials(cfg)
	if len(missing) > 0 {
		fmt.Fprintf(w, "⚠️  Missing: %s\n", strings.Join(missing, ", "))
	}

	client, err := reddit.NewClient(cfg.Credentials(),
		reddit.WithAuthURL(cfg.RedditAuthURL),
		reddit.WithBaseURL(cfg.RedditAPIURL),
		reddit.WithTimeout(cfg.RequestTimeout),
		reddit.WithProxy(cfg.ProxyURL),
		reddit.WithRateLimit(cfg.RateLimitPerMinute),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "🔸 Exchanging refresh token as %q... ", cfg.RedditUserAgent)
	if err := client.Authenticate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "✅ SUCCESS")

	fmt.Fprintf(w, "🔸 Listing r/%s (window: %s)... ", cfg.Subreddit, cfg.TimeWindow)
	posts, err := client.ListNew(ctx, cfg.Subreddit, reddit.ListingOptions{Time: cfg.TimeWindow, Limit: 1})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✅ SUCCESS (%d posts)\n", len(posts))

	if len(posts) > 0 {
		fmt.Fprintf(w, "   📝 Sample: \"%s\"\n", posts[0].Title)
	}
	return nil
}

func missingCredentials(cfg *config.Config) []string {
	var missing []string
	if cfg.RedditClientID == "" {
		missing = append(missing, "REDDIT_CLIENT_ID")
	}
	if cfg.RedditClientSecret == "" {
		missing = append(missing, "REDDIT_CLIENT_SECRET")
	}
	if cfg.RedditRefreshToken == "" {
		missing = append(missing, "REDDIT_REFRESH_TOKEN")
	}
	return missing
}

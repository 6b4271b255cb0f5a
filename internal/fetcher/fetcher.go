package fetcher

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/ollama-watch/reddit-fetcher/internal/config"
	"github.com/ollama-watch/reddit-fetcher/internal/models"
	"github.com/ollama-watch/reddit-fetcher/internal/output"
	"github.com/ollama-watch/reddit-fetcher/internal/reddit"
	"github.com/sirupsen/logrus"
)

// Lister is the part of the Reddit client the fetcher needs
type Lister interface {
	ListNew(ctx context.Context, subreddit string, opts reddit.ListingOptions) ([]reddit.Post, error)
}

// ClientFactory builds a Lister from credentials.
type ClientFactory func(creds reddit.Credentials) (Lister, error)

// FetchError is the single failure reported for a fetch cycle.
type FetchError struct {
	Subreddit string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch r/%s failed: %v", e.Subreddit, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher performs one fetch-and-print cycle per Run
type Fetcher struct {
	credentials reddit.Credentials
	subreddit   string
	listing     reddit.ListingOptions
	newClient   ClientFactory
	printer     output.Printer
	logger      *logrus.Logger
}

// New creates a fetcher for the subreddit and window named in cfg
func New(cfg *config.Config, newClient ClientFactory, printer output.Printer, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		credentials: cfg.Credentials(),
		subreddit:   cfg.Subreddit,
		listing: reddit.ListingOptions{
			Time:  cfg.TimeWindow,
			Limit: cfg.ListingLimit,
		},
		newClient: newClient,
		printer:   printer,
		logger:    logger,
	}
}

// Run builds a client, lists the newest posts once and prints a summary of each.
// Any failure is logged once as an error and returned as a *FetchError.
func (f *Fetcher) Run(ctx context.Context) error {
	log := f.logger.WithFields(logrus.Fields{
		"run_id":      uuid.NewString(),
		"subreddit":   f.subreddit,
		"time_window": f.listing.Time,
	})

	count, err := f.fetchAndPrint(ctx, log)
	if err != nil {
		log.WithError(err).Error("Error fetching posts")
		return &FetchError{Subreddit: f.subreddit, Err: err}
	}

	log.WithField("posts", count).Debug("Fetch completed")
	return nil
}

func (f *Fetcher) fetchAndPrint(ctx context.Context, log logrus.FieldLogger) (int, error) {
	client, err := f.newClient(f.credentials)
	if err != nil {
		return 0, fmt.Errorf("failed to create Reddit client: %w", err)
	}

	start := time.Now()
	posts, err := client.ListNew(ctx, f.subreddit, f.listing)
	if err != nil {
		return 0, err
	}
	log.Debugf("Listing returned %d posts in %v", len(posts), time.Since(start))

	summaries := make([]models.PostSummary, 0, len(posts))
	for _, post := range posts {
		summaries = append(summaries, Summarize(post))
	}

	for i, summary := range summaries {
		if err := f.printer.Print(summary); err != nil {
			return i, fmt.Errorf("failed to print post %d: %w", i, err)
		}
	}

	return len(summaries), nil
}

// Summarize projects an upstream post onto the fields that get printed.
func Summarize(post reddit.Post) models.PostSummary {
	return models.PostSummary{
		Title:       post.Title,
		Content:     post.Selftext,
		Score:       post.Score,
		NumComments: post.NumComments,
		Date:        EpochToTime(post.CreatedUTC),
	}
}

// EpochToTime converts Unix seconds, possibly fractional, to a UTC time at
// millisecond precision.
func EpochToTime(seconds float64) time.Time {
	return time.UnixMilli(int64(math.Round(seconds * 1000))).UTC()
}

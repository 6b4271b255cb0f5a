package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://oauth.reddit.com"
	DefaultAuthURL   = "https://www.reddit.com"
	DefaultUserAgent = "ollama-post-fetcher/1.0"
	DefaultTimeout   = 30 * time.Second

	tokenPath = "/api/v1/access_token"

	// Tokens are refreshed this long before Reddit says they expire.
	tokenExpiryMargin = time.Minute

	minBurst = 2
)

// Client talks to the Reddit OAuth API using a refresh token
type Client struct {
	creds   Credentials
	http    *resty.Client
	baseURL string
	authURL string
	limiter *rate.Limiter
	logger  logrus.FieldLogger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type options struct {
	baseURL        string
	authURL        string
	timeout        time.Duration
	proxyURL       string
	requestsPerMin int
	logger         logrus.FieldLogger
}

// Option customizes a Client.
type Option func(*options)

// WithBaseURL overrides the API host, mostly useful for tests.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithAuthURL overrides the host serving the token endpoint.
func WithAuthURL(u string) Option {
	return func(o *options) { o.authURL = u }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithProxy routes all requests through an http, https or socks5 proxy.
func WithProxy(proxyURL string) Option {
	return func(o *options) { o.proxyURL = proxyURL }
}

// WithRateLimit caps outgoing requests per minute. Zero or less disables the limiter.
func WithRateLimit(requestsPerMinute int) Option {
	return func(o *options) { o.requestsPerMin = requestsPerMinute }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) { o.logger = logger }
}

// NewClient builds a client from credentials. No request is made until the
// first call, so bad credentials only show up then.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	o := &options{
		baseURL:        DefaultBaseURL,
		authURL:        DefaultAuthURL,
		timeout:        DefaultTimeout,
		requestsPerMin: 60,
		logger:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if creds.UserAgent == "" {
		creds.UserAgent = DefaultUserAgent
	}

	httpClient := resty.New().
		SetTimeout(o.timeout).
		SetHeader("User-Agent", creds.UserAgent).
		SetLogger(o.logger)

	if o.proxyURL != "" {
		transport, err := proxyTransport(o.proxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
		httpClient.SetTransport(transport.Transport)
		o.logger.WithField("proxy", transport.proxyHost).Debug("Using proxy for Reddit requests")
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if o.requestsPerMin > 0 {
		// A cold ListNew makes two requests (token, listing); both must fit in the burst.
		limiter = rate.NewLimiter(rate.Limit(float64(o.requestsPerMin)/60), max(o.requestsPerMin, minBurst))
	}

	return &Client{
		creds:   creds,
		http:    httpClient,
		baseURL: strings.TrimSuffix(o.baseURL, "/"),
		authURL: strings.TrimSuffix(o.authURL, "/"),
		limiter: limiter,
		logger:  o.logger,
	}, nil
}

// Authenticate exchanges the refresh token for a fresh access token.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.refreshAccessToken(ctx)
	return err
}

// ListNew returns the newest posts of a subreddit in the order Reddit lists them.
func (c *Client) ListNew(ctx context.Context, subreddit string, opts ListingOptions) ([]Post, error) {
	subreddit = normalizeSubreddit(subreddit)
	if subreddit == "" {
		return nil, fmt.Errorf("subreddit name is required")
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("reddit authentication failed: %w", err)
	}

	params := map[string]string{"raw_json": "1"}
	if opts.Time != "" {
		params["t"] = string(opts.Time)
	}
	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"subreddit":   subreddit,
		"time_window": opts.Time,
		"limit":       opts.Limit,
	}).Debug("Requesting new posts")

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("subreddit", subreddit).
		SetQueryParams(params).
		Get(c.baseURL + "/r/{subreddit}/new")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch r/%s/new: %w", subreddit, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: truncateBody(resp.Body())}
	}

	var listing listingResponse
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Body:       truncateBody(resp.Body()),
			Err:        fmt.Errorf("failed to decode listing: %w", err),
		}
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}

	c.logger.WithFields(logrus.Fields{
		"subreddit": subreddit,
		"posts":     len(posts),
	}).Debug("Received listing")

	return posts, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}
	return c.refreshAccessToken(ctx)
}

// refreshAccessToken must be called with c.mu held.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": c.creds.RefreshToken,
		}).
		Post(c.authURL + tokenPath)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode(), Body: truncateBody(resp.Body())}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(resp.Body(), &tokenResp); err != nil {
		return "", &APIError{
			StatusCode: resp.StatusCode(),
			Body:       truncateBody(resp.Body()),
			Err:        fmt.Errorf("failed to decode token response: %w", err),
		}
	}

	// Reddit reports a rejected grant with a 200 and an error field.
	if tokenResp.Error != "" {
		return "", &APIError{StatusCode: resp.StatusCode(), Err: fmt.Errorf("token request rejected: %s", tokenResp.Error)}
	}
	if tokenResp.AccessToken == "" {
		return "", &APIError{StatusCode: resp.StatusCode(), Err: errors.New("access token was empty in response")}
	}

	c.accessToken = tokenResp.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryMargin)

	c.logger.WithField("expires_in", tokenResp.ExpiresIn).Debug("Obtained Reddit access token")
	return c.accessToken, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func normalizeSubreddit(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, "r/")
	return strings.Trim(name, "/")
}

type proxiedTransport struct {
	*http.Transport
	proxyHost string
}

func proxyTransport(proxyURL string) (*proxiedTransport, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("proxy URL %q has no host", proxyURL)
	}

	switch parsed.Scheme {
	case "http", "https":
		return &proxiedTransport{
			Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
			proxyHost: parsed.Host,
		}, nil
	case "socks5":
		var auth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &proxy.Auth{
				User:     parsed.User.Username(),
				Password: password,
			}
		}

		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, err
		}

		return &proxiedTransport{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					if cd, ok := dialer.(proxy.ContextDialer); ok {
						return cd.DialContext(ctx, network, addr)
					}
					return dialer.Dial(network, addr)
				},
			},
			proxyHost: parsed.Host,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
	}
}

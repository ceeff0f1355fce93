package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"SentiPull/internal/domain/models"
	xhttp "SentiPull/pkg/http"
	applogger "SentiPull/pkg/logger"
)

const (
	defaultBaseURL  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultQueryTpl = "%s stock"
	defaultLimit    = 100
)

// APIError represents a non-2xx answer from the Reddit API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit api error %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client fetches ticker posts from the Reddit search API and
// implements repository.PostSupply. OAuth2 client-credentials tokens
// are cached until shortly before expiry; Reddit requires a custom
// User-Agent on every call.
type Client struct {
	clientID     string
	clientSecret string
	userAgent    string
	baseURL      string
	tokenURL     string
	subreddits   []string
	queryTpl     string
	postLimit    int
	logger       *applogger.Logger
	http         *xhttp.Client

	maxRetries   int
	retryBackoff time.Duration

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures a Client.
type Option func(*Client)

// New creates a Reddit post supply client.
func New(clientID, clientSecret, userAgent string, lgr *applogger.Logger, opts ...Option) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		subreddits:   []string{"stocks", "investing", "wallstreetbets"},
		queryTpl:     defaultQueryTpl,
		postLimit:    defaultLimit,
		logger:       lgr,
		http:         xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		maxRetries:   3,
		retryBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL overrides the listing API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(u string) Option {
	return func(c *Client) {
		c.tokenURL = u
	}
}

// WithSubreddits sets the subreddits searched per ticker.
func WithSubreddits(subs []string) Option {
	return func(c *Client) {
		if len(subs) > 0 {
			c.subreddits = subs
		}
	}
}

// WithQueryTemplate sets the search query template; %s is replaced
// with the ticker.
func WithQueryTemplate(tpl string) Option {
	return func(c *Client) {
		if tpl != "" {
			c.queryTpl = tpl
		}
	}
}

// WithPostLimit caps listing size per search (Reddit max 100).
func WithPostLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.postLimit = n
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

func (c *Client) Name() string { return "reddit" }

// FetchPosts searches the configured subreddits for the ticker and
// returns posts created inside [from, to].
func (c *Client) FetchPosts(ctx context.Context, ticker string, from, to time.Time) ([]models.Post, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	path := fmt.Sprintf("/r/%s/search", strings.Join(c.subreddits, "+"))
	body, err := c.doWithRetry(ctx, path, map[string][]string{
		"q":           {fmt.Sprintf(c.queryTpl, ticker)},
		"restrict_sr": {"1"},
		"sort":        {"new"},
		"limit":       {strconv.Itoa(c.postLimit)},
		"t":           {searchWindow(from, to)},
	})
	if err != nil {
		return nil, err
	}

	var listing listingResp
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("unmarshal listing: %w", err)
	}

	posts := make([]models.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		created := time.Unix(int64(d.CreatedUTC), 0).UTC()
		if created.Before(from) || created.After(to) {
			continue
		}
		posts = append(posts, models.Post{
			ID:          d.Name,
			Ticker:      ticker,
			Source:      "reddit/" + d.Subreddit,
			Title:       d.Title,
			Body:        d.Selftext,
			Author:      d.Author,
			URL:         "https://www.reddit.com" + d.Permalink,
			Upvotes:     d.Score,
			NumComments: d.NumComments,
			CreatedAt:   created,
		})
	}

	c.logger.Debug("reddit posts fetched",
		applogger.String("ticker", ticker),
		applogger.Int("listed", len(listing.Data.Children)),
		applogger.Int("kept", len(posts)))
	return posts, nil
}

type listingResp struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// searchWindow maps the requested span to Reddit's coarse t
// parameter; exact trimming happens client-side. The span comes from
// the caller's bounds, so a poll window of exactly 24h stays "day"
// regardless of when the request is built.
func searchWindow(from, to time.Time) string {
	age := to.Sub(from)
	switch {
	case age <= 24*time.Hour:
		return "day"
	case age <= 7*24*time.Hour:
		return "week"
	case age <= 31*24*time.Hour:
		return "month"
	default:
		return "year"
	}
}

// doWithRetry performs the search with exponential backoff. A 401
// forces a token refresh; only 429 and 5xx answers are retried.
func (c *Client) doWithRetry(ctx context.Context, path string, query map[string][]string) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Jitter: backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int63n(int64(backoff)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}
			backoff *= 2
		}

		body, err := c.search(ctx, path, query)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return nil, err
		}
		if apiErr.StatusCode == http.StatusUnauthorized {
			c.clearToken()
			continue
		}
		if !apiErr.IsRetryable() {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) search(ctx context.Context, path string, query map[string][]string) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Authorization": "bearer " + token,
			"User-Agent":    c.userAgent,
		},
		QueryParams: query,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// accessToken returns the cached token or fetches a fresh one via the
// client-credentials flow.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.tokenURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"User-Agent":   c.userAgent,
		},
		Body:      map[string]string{"grant_type": "client_credentials"},
		BasicAuth: &xhttp.BasicAuth{Username: c.clientID, Password: c.clientSecret},
	}, &tr)
	if err != nil {
		return "", fmt.Errorf("reddit token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("reddit token: empty access_token")
	}

	c.token = tr.AccessToken
	// Refresh a minute before Reddit expires it.
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

package yahoo

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
	"time"

	"SentiPull/internal/domain/models"
	xhttp "SentiPull/pkg/http"
	applogger "SentiPull/pkg/logger"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// APIError represents a non-2xx answer from the chart API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo api error %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client fetches daily close history from the Yahoo chart endpoint
// and implements repository.PriceSupply.
type Client struct {
	baseURL      string
	userAgent    string
	logger       *applogger.Logger
	http         *xhttp.Client
	maxRetries   int
	retryBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// New creates a Yahoo price supply client.
func New(lgr *applogger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      defaultBaseURL,
		userAgent:    "sentipull/1.0",
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

// WithBaseURL overrides the chart API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
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

// FetchDailyHistory returns up to days daily close bars for the
// ticker, oldest first. Null closes (halted or partial days) are
// skipped, not zero-filled.
func (c *Client) FetchDailyHistory(ctx context.Context, ticker string, days int) ([]models.PriceObservation, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	if days <= 0 {
		days = 30
	}

	body, err := c.doWithRetry(ctx, "/v8/finance/chart/"+ticker, map[string][]string{
		"range":    {strconv.Itoa(days) + "d"},
		"interval": {"1d"},
	})
	if err != nil {
		return nil, err
	}

	var cr chartResp
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("unmarshal chart: %w", err)
	}
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart: %s", cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart: empty result for %q", ticker)
	}

	r := cr.Chart.Result[0]
	closes := r.Indicators.Quote[0].Close
	out := make([]models.PriceObservation, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		out = append(out, models.PriceObservation{
			Ticker:    ticker,
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     *closes[i],
		})
	}

	c.logger.Debug("yahoo bars fetched",
		applogger.String("ticker", ticker),
		applogger.Int("bars", len(out)))
	return out, nil
}

type chartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// doWithRetry performs the chart request with exponential backoff;
// only 429 and 5xx answers are retried.
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

		body, err := c.get(ctx, path, query)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return nil, err
		}
		if !apiErr.IsRetryable() {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string) ([]byte, error) {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		Headers:     map[string]string{"User-Agent": c.userAgent},
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

// Package shopify implements the remote catalog gateway against the Shopify
// Admin REST and GraphQL APIs.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
)

const (
	// maxResponseSize limits response bodies to prevent memory exhaustion.
	maxResponseSize = 50 * 1024 * 1024
	// defaultAPIVersion is the Admin API version used when none is configured.
	defaultAPIVersion = "2023-10"
)

// Errors for client configuration.
var (
	ErrConfigMissingShopURL     = errors.New("shopify: shop URL is required")
	ErrConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// Config holds the connection and resilience settings for the Shopify client.
type Config struct {
	// ShopURL is the shop's base URL, e.g. https://my-shop.myshopify.com.
	ShopURL string
	// AccessToken is the Admin API access token.
	AccessToken string
	// APIVersion selects the Admin API version path segment.
	APIVersion string
	// Timeout is the per-call HTTP timeout.
	Timeout time.Duration
	// MinRequestInterval is the spacing the shared limiter enforces between
	// API calls.
	MinRequestInterval time.Duration
	// MaxRetries is the attempt ceiling for throttled or transient failures.
	MaxRetries int
	// RetryBackoffBase is the first backoff step; later steps double it.
	RetryBackoffBase time.Duration
	// RetryBackoffMax caps the backoff, including server retry-after hints.
	RetryBackoffMax time.Duration
	// PageSize is the page size for cursor-paginated listings.
	PageSize int
	// BulkPollInterval is the wait between bulk job status polls.
	BulkPollInterval time.Duration
	// BulkTimeout is the wall-clock ceiling for a bulk export job.
	BulkTimeout time.Duration
}

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	if c.ShopURL == "" {
		return ErrConfigMissingShopURL
	}
	if c.AccessToken == "" {
		return ErrConfigMissingAccessToken
	}
	c.ShopURL = strings.TrimRight(c.ShopURL, "/")
	if c.APIVersion == "" {
		c.APIVersion = defaultAPIVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MinRequestInterval <= 0 {
		c.MinRequestInterval = 500 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = 500 * time.Millisecond
	}
	if c.RetryBackoffMax <= 0 {
		c.RetryBackoffMax = 8 * time.Second
	}
	if c.PageSize <= 0 {
		c.PageSize = 250
	}
	if c.BulkPollInterval <= 0 {
		c.BulkPollInterval = 5 * time.Second
	}
	if c.BulkTimeout <= 0 {
		c.BulkTimeout = 10 * time.Minute
	}
	return nil
}

// Client is the HTTP adapter for the remote catalog platform. All API calls
// share one rate limiter and one retry policy; the resolved primary location
// is cached per client instance.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *telemetry.SyncMetrics

	mu                sync.Mutex
	primaryLocationID int64
}

// NewClient creates a Shopify client from the given configuration.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.MinRequestInterval), 1),
		logger:     logger,
	}, nil
}

// SetMetrics sets the request metrics collector.
func (c *Client) SetMetrics(m *telemetry.SyncMetrics) {
	c.metrics = m
}

// TestConnection verifies API reachability and credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "shop.json", nil, nil, nil)
	return err
}

// ---------------------------------------------------------------------------
// Request core
// ---------------------------------------------------------------------------

// apiURL builds the versioned Admin API URL for a resource path.
func (c *Client) apiURL(path string, query url.Values) string {
	u := fmt.Sprintf("%s/admin/api/%s/%s", c.cfg.ShopURL, c.cfg.APIVersion, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one API call with rate limiting and retry. The request body is
// re-marshaled once and replayed across attempts; 429 and 5xx responses back
// off exponentially, honoring a Retry-After hint when the server sends one.
// Other non-2xx responses are terminal. The response headers are returned for
// pagination.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (http.Header, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("shopify: marshal request: %w", err)
		}
	}

	resource := metricResource(path)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		header, retryAfter, err := c.doOnce(ctx, method, c.apiURL(path, query), payload, out)
		if c.metrics != nil {
			c.metrics.RecordPlatformRequest(ctx, method, resource, requestStatus(err), time.Since(start))
		}
		if err == nil {
			return header, nil
		}
		lastErr = err

		if !integration.IsRetryable(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		delay := c.backoff(attempt, retryAfter)
		c.logger.Warn("Retrying platform request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// doOnce performs a single HTTP exchange. The retry-after return value is
// only set for throttled responses that carried the header.
func (c *Client) doOnce(ctx context.Context, method, rawURL string, payload []byte, out any) (http.Header, time.Duration, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response: %v", integration.ErrPlatformUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")),
			classifyStatus(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
	}
	return resp.Header, 0, nil
}

// backoff computes the wait before the next attempt: exponential doubling
// from the base, overridden by a server hint, capped at the configured max.
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	delay := c.cfg.RetryBackoffBase << (attempt - 1)
	if retryAfter > 0 {
		delay = retryAfter
	}
	if delay > c.cfg.RetryBackoffMax {
		delay = c.cfg.RetryBackoffMax
	}
	return delay
}

// classifyStatus maps an HTTP error status onto the platform error contract:
// throttling and server errors are retryable, everything else is terminal.
func classifyStatus(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP 429", integration.ErrPlatformRateLimited)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrPlatformUnavailable, status, detail)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", integration.ErrPlatformRequestFailed, status, detail)
	}
}

// requestStatus maps a request outcome onto its metrics label.
func requestStatus(err error) telemetry.RequestStatus {
	switch {
	case err == nil:
		return telemetry.RequestStatusSuccess
	case errors.Is(err, integration.ErrPlatformRateLimited):
		return telemetry.RequestStatusThrottled
	default:
		return telemetry.RequestStatusError
	}
}

// metricResource collapses numeric identifiers in an API path so the metrics
// label stays bounded, e.g. "products/42.json" becomes "products/:id.json".
func metricResource(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		name, suffix, found := strings.Cut(seg, ".")
		if name == "" || !isDigits(name) {
			continue
		}
		if found {
			segments[i] = ":id." + suffix
		} else {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseRetryAfter parses the Retry-After header, which Shopify sends in
// (possibly fractional) seconds.
func parseRetryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(h, 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// Ensure Client implements the domain gateway port.
var _ integration.CatalogGateway = (*Client)(nil)

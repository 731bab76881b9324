// Package ncbi provides a shared base HTTP client for NCBI hosts.
// The eutils search and fetch paths both go through it so they share rate
// limiting, common parameters, and response size guards. The Europe PMC
// client reuses it with an open limiter.
package ncbi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the NCBI E-utilities base URL.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// Rate limits per NCBI policy.
	RateWithoutKey = 3  // requests per second without API key
	RateWithKey    = 10 // requests per second with API key

	// DefaultMaxResponseBytes is the maximum response body size (256 MB).
	// A 10000-id MeSH batch comes back well above the usual 50 MB guard.
	DefaultMaxResponseBytes int64 = 256 * 1024 * 1024
)

// Waiter blocks until the next request may be sent.
// *rate.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// BaseClient is a shared HTTP client for NCBI E-utilities with rate
// limiting, common parameter injection, and response size guards.
type BaseClient struct {
	BaseURL    string
	APIKey     string
	Tool       string
	Email      string
	HTTPClient *http.Client
	Limiter    Waiter
	MaxBytes   int64
	Logger     *zap.Logger
}

// Option configures a BaseClient.
type Option func(*BaseClient)

// WithBaseURL sets the base URL for requests.
func WithBaseURL(u string) Option {
	return func(c *BaseClient) { c.BaseURL = u }
}

// WithAPIKey sets the NCBI API key and adjusts the rate limit accordingly.
func WithAPIKey(key string) Option {
	return func(c *BaseClient) {
		c.APIKey = key
		if key != "" {
			c.Limiter = rate.NewLimiter(rate.Limit(RateWithKey), 1)
		}
	}
}

// WithTool sets the tool parameter for NCBI requests.
func WithTool(tool string) Option {
	return func(c *BaseClient) { c.Tool = tool }
}

// WithEmail sets the email parameter for NCBI requests.
func WithEmail(email string) Option {
	return func(c *BaseClient) { c.Email = email }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BaseClient) { c.HTTPClient = hc }
}

// WithLimiter replaces the request limiter. Options are applied in order,
// so put it after WithAPIKey.
func WithLimiter(w Waiter) Option {
	return func(c *BaseClient) { c.Limiter = w }
}

// WithMaxResponseBytes sets the maximum allowed response body size.
func WithMaxResponseBytes(n int64) Option {
	return func(c *BaseClient) { c.MaxBytes = n }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *BaseClient) {
		if l != nil {
			c.Logger = l
		}
	}
}

// NewBaseClient creates a new NCBI base client with the given options.
// The HTTP client carries no timeout of its own; callers bound requests
// through their context.
func NewBaseClient(opts ...Option) *BaseClient {
	c := &BaseClient{
		BaseURL:    DefaultBaseURL,
		MaxBytes:   DefaultMaxResponseBytes,
		Limiter:    rate.NewLimiter(rate.Limit(RateWithoutKey), 1),
		HTTPClient: &http.Client{},
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// commonParams adds api_key, tool and email when configured.
func (c *BaseClient) commonParams(params url.Values) url.Values {
	if params == nil {
		params = url.Values{}
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}
	if c.Tool != "" {
		params.Set("tool", c.Tool)
	}
	if c.Email != "" {
		params.Set("email", c.Email)
	}
	return params
}

func (c *BaseClient) endpointURL(endpoint string) (string, error) {
	if endpoint == "" {
		return c.BaseURL, nil
	}
	u, err := url.JoinPath(c.BaseURL, endpoint)
	if err != nil {
		return "", fmt.Errorf("building URL: %w", err)
	}
	return u, nil
}

// DoGet performs a rate-limited GET request with common NCBI parameters
// and response size limits. Returns the response body.
func (c *BaseClient) DoGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := c.endpointURL(endpoint)
	if err != nil {
		return nil, err
	}
	fullURL := u + "?" + c.commonParams(params).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.do(ctx, endpoint, req)
}

// DoGetURL performs a rate-limited GET against an absolute URL outside the
// E-utilities tree. Common NCBI parameters are not added.
func (c *BaseClient) DoGetURL(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	fullURL := rawURL
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.do(ctx, req.URL.Host, req)
}

// DoPost sends params as an application/x-www-form-urlencoded body.
// Use it when the id list is too long for a query string.
func (c *BaseClient) DoPost(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u, err := c.endpointURL(endpoint)
	if err != nil {
		return nil, err
	}
	body := c.commonParams(params).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, endpoint, req)
}

func (c *BaseClient) do(ctx context.Context, endpoint string, req *http.Request) ([]byte, error) {
	// Wait for rate limiter token (respects context cancellation).
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	c.Logger.Debug("ncbi request",
		zap.String("method", req.Method),
		zap.String("endpoint", endpoint))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("NCBI rate limit exceeded. Consider using an API key with --api-key or NCBI_API_KEY env var"),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	return ReadLimited(resp.Body, c.MaxBytes, endpoint)
}

// ReadLimited reads at most max bytes from r. A body larger than max is a
// TransportError.
func ReadLimited(r io.Reader, max int64, endpoint string) ([]byte, error) {
	// Read up to max+1 to detect oversized responses.
	body, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("reading response: %w", err)}
	}
	if int64(len(body)) > max {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("response exceeds maximum size of %d bytes", max)}
	}
	return body, nil
}

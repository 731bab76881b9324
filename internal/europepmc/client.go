// Package europepmc searches the Europe PMC REST API for identifier lists.
// Requests go through the shared ncbi.BaseClient for its size guard and
// error taxonomy; Europe PMC imposes no rate limit, so the limiter is open.
package europepmc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/henrybloomingdale/litfetch/internal/ncbi"
)

const (
	// DefaultURL is the Europe PMC REST search endpoint.
	DefaultURL = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

	// DefaultPageSize is the pageSize sent when the caller passes none.
	DefaultPageSize = 1000

	// FirstRequestTimeout bounds the hit-count probe. Cursor pages are
	// bounded only by the caller's context.
	FirstRequestTimeout = 10 * time.Second

	// initialCursor is the cursorMark of the first page.
	initialCursor = "*"
)

// Client is an HTTP client for the Europe PMC search endpoint.
type Client struct {
	*ncbi.BaseClient

	URL          string
	ProbeTimeout time.Duration
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	url          string
	probeTimeout time.Duration
	base         []ncbi.Option
}

// WithURL sets the search endpoint.
func WithURL(u string) Option {
	return func(o *clientOptions) { o.url = u }
}

// WithProbeTimeout overrides FirstRequestTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.probeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.base = append(o.base, ncbi.WithLogger(l)) }
}

// WithBaseOptions passes options through to the underlying ncbi.BaseClient.
func WithBaseOptions(opts ...ncbi.Option) Option {
	return func(o *clientOptions) { o.base = append(o.base, opts...) }
}

// NewClient creates a Europe PMC client.
func NewClient(opts ...Option) *Client {
	o := clientOptions{url: DefaultURL, probeTimeout: FirstRequestTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	base := append([]ncbi.Option{
		ncbi.WithBaseURL(o.url),
		ncbi.WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	}, o.base...)

	return &Client{
		BaseClient:   ncbi.NewBaseClient(base...),
		URL:          o.url,
		ProbeTimeout: o.probeTimeout,
	}
}

// probeContext applies ProbeTimeout to the first request of a search.
func (c *Client) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.ProbeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.ProbeTimeout)
}

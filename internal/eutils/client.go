package eutils

import (
	"time"

	"github.com/henrybloomingdale/litfetch/internal/ncbi"
)

const (
	// DefaultWebURL is the interactive PubMed search front end.
	DefaultWebURL = "https://pubmed.ncbi.nlm.nih.gov/"

	// PageSize is the retmax used for each ESearch page.
	PageSize = 10000
	// TimeThreshold is the minimum interval between ESearch pages.
	TimeThreshold = 333333400 * time.Nanosecond

	// FetchBatchSize is the number of ids per EFetch GET.
	FetchBatchSize = 100
	// MeshBatchSize is the number of ids per MeSH EFetch POST.
	MeshBatchSize = 10000
	// FailureDelay is the pause after a failed fetch batch.
	FailureDelay = 10 * time.Second

	// orderedPageSize is the fixed result count of the web search.
	orderedPageSize = 10
)

// Client is an HTTP client for NCBI E-utilities.
// It embeds ncbi.BaseClient for shared rate limiting, common parameters,
// and response size guards.
type Client struct {
	*ncbi.BaseClient

	Query        QueryContext
	WebURL       string
	PageSize     int
	Interval     time.Duration
	FetchBatch   int
	MeshBatch    int
	FailureDelay time.Duration
	Clock        ncbi.Clock
	baseOpts     []ncbi.Option
}

// Option configures a Client.
type Option func(*Client)

// WithBaseOptions passes options through to the underlying ncbi.BaseClient.
// They run after the API key from the QueryContext is applied.
func WithBaseOptions(opts ...ncbi.Option) Option {
	return func(c *Client) { c.baseOpts = append(c.baseOpts, opts...) }
}

// WithWebURL sets the interactive search URL used by SearchOrdered.
func WithWebURL(u string) Option {
	return func(c *Client) { c.WebURL = u }
}

// WithPageSize overrides the ESearch page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.PageSize = n
		}
	}
}

// WithBatchSizes overrides the EFetch and MeSH batch sizes.
func WithBatchSizes(fetch, mesh int) Option {
	return func(c *Client) {
		if fetch > 0 {
			c.FetchBatch = fetch
		}
		if mesh > 0 {
			c.MeshBatch = mesh
		}
	}
}

// WithClock sets the time source for page pacing and failure delays.
func WithClock(clk ncbi.Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.Clock = clk
		}
	}
}

// WithInterval sets the minimum interval between ESearch pages.
func WithInterval(d time.Duration) Option {
	return func(c *Client) { c.Interval = d }
}

// WithFailureDelay sets the pause after a failed fetch batch.
func WithFailureDelay(d time.Duration) Option {
	return func(c *Client) { c.FailureDelay = d }
}

// NewClient creates an E-utilities client for the given query context.
func NewClient(q QueryContext, opts ...Option) *Client {
	c := &Client{
		Query:        q,
		WebURL:       DefaultWebURL,
		PageSize:     PageSize,
		Interval:     TimeThreshold,
		FetchBatch:   FetchBatchSize,
		MeshBatch:    MeshBatchSize,
		FailureDelay: FailureDelay,
		Clock:        ncbi.SystemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	baseOpts := append([]ncbi.Option{ncbi.WithAPIKey(q.APIKey)}, c.baseOpts...)
	c.BaseClient = ncbi.NewBaseClient(baseOpts...)
	c.baseOpts = nil
	return c
}

package eutils

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/henrybloomingdale/litfetch/internal/ncbi"
)

const esearchEndpoint = "esearch.fcgi"

// esearchResponse is the XML reply from ESearch. Count is a pointer so a
// missing element can be told apart from zero.
type esearchResponse struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   *string  `xml:"Count"`
	IDs     []string `xml:"IdList>Id"`
	Error   string   `xml:"ERROR"`
}

// count reports the match count, or false when it is missing, unparseable
// or negative.
func (r *esearchResponse) count() (int, bool) {
	if r.Count == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(*r.Count))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Count returns the number of records matching query after open-access
// rewriting.
func (c *Client) Count(ctx context.Context, query string) (int, error) {
	if strings.TrimSpace(query) == "" {
		return 0, fmt.Errorf("search query cannot be empty")
	}
	term, _ := c.Query.Rewrite(query)

	resp, err := c.esearch(ctx, term, nil)
	if err != nil {
		return 0, err
	}
	n, ok := resp.count()
	if !ok {
		return 0, &ncbi.ProtocolError{Endpoint: esearchEndpoint, Field: "Count", Query: term}
	}
	return n, nil
}

// SearchAll pages through every identifier matching query. Identifiers
// come back in server order, prefixed with PMC when searching the
// open-access PMC subset.
func (c *Client) SearchAll(ctx context.Context, query string) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	term, prefix := c.Query.Rewrite(query)
	log := c.Logger.With(zap.String("db", string(c.Query.db())), zap.String("term", term))

	pacer := ncbi.NewIntervalPacer(c.Interval, c.Clock)
	pacer.Mark()
	probe, err := c.esearch(ctx, term, nil)
	if err != nil {
		return nil, err
	}
	count, ok := probe.count()
	if !ok {
		return nil, &ncbi.ProtocolError{Endpoint: esearchEndpoint, Field: "Count", Query: term}
	}
	log.Info("esearch started", zap.Int("count", count), zap.Int("page_size", c.PageSize))

	result := &SearchResult{
		Count:    count,
		IDs:      make([]string, 0, min(count, c.PageSize)),
		IDPrefix: prefix,
	}

	for start := 0; start < count; start += c.PageSize {
		if _, err := pacer.Pause(ctx); err != nil {
			return nil, fmt.Errorf("pacing esearch: %w", err)
		}
		pacer.Mark()

		page, err := c.esearch(ctx, term, url.Values{
			"retstart": {strconv.Itoa(start)},
			"retmax":   {strconv.Itoa(c.PageSize)},
		})
		if err != nil {
			return nil, err
		}
		if _, ok := page.count(); !ok {
			return nil, &ncbi.ProtocolError{Endpoint: esearchEndpoint, Field: "Count", Query: term}
		}
		for _, id := range page.IDs {
			result.IDs = append(result.IDs, prefix+strings.TrimSpace(id))
		}
		log.Debug("esearch page", zap.Int("retstart", start), zap.Int("ids", len(page.IDs)))
	}

	return result, nil
}

func (c *Client) esearch(ctx context.Context, term string, extra url.Values) (*esearchResponse, error) {
	params := url.Values{}
	params.Set("db", string(c.Query.db()))
	params.Set("term", term)
	for k, v := range extra {
		params[k] = v
	}

	body, err := c.DoGet(ctx, esearchEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	var resp esearchResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	return &resp, nil
}

// SearchOrdered runs query against the PubMed web front end and returns
// the identifiers on its first page of ten, ranked by order. It is meant
// for eyeballing ranking, not for exhaustive retrieval.
func (c *Client) SearchOrdered(ctx context.Context, query string, order Order) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	params := url.Values{}
	params.Set("format", "pmid")
	params.Set("size", strconv.Itoa(orderedPageSize))
	params.Set("term", query)
	switch order {
	case OrderRelevance, "":
	case OrderDate:
		params.Set("sort", "date")
	default:
		return nil, fmt.Errorf("invalid order %q", order)
	}

	body, err := c.DoGetURL(ctx, c.WebURL, params)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	return parseWebIDs(body)
}

// parseWebIDs splits the visible body text of a format=pmid page into ids.
func parseWebIDs(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing web search response: %w", err)
	}
	return strings.Fields(doc.Find("body").Text()), nil
}

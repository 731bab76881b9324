package europepmc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/henrybloomingdale/litfetch/internal/ncbi"
)

// SearchResult is the outcome of a cursor-paginated search.
type SearchResult struct {
	HitCount int      `json:"hitCount"`
	IDs      []string `json:"ids"`
}

// searchResponse is the idlist JSON payload.
type searchResponse struct {
	HitCount       *int   `json:"hitCount"`
	NextCursorMark string `json:"nextCursorMark"`
	ResultList     struct {
		Result []idEntry `json:"result"`
	} `json:"resultList"`
}

type idEntry struct {
	ID     flexString `json:"id"`
	Source string     `json:"source"`
	PMID   flexString `json:"pmid"`
}

// key is the PMID when the entry has one, otherwise its source id.
func (e idEntry) key() string {
	if pmid := strings.TrimSpace(string(e.PMID)); pmid != "" {
		return pmid
	}
	return strings.TrimSpace(string(e.ID))
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// Search returns the hit count for query and the sorted, de-duplicated
// identifiers of every hit. A first request reads hitCount under
// ProbeTimeout; then ceil(hitCount/pageSize) cursor pages follow, starting
// at cursorMark "*". pageSize <= 0 means DefaultPageSize. Any error aborts
// the search.
func (c *Client) Search(ctx context.Context, query string, pageSize int) (*SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	log := c.Logger.With(zap.String("query", query), zap.Int("page_size", pageSize))

	probeCtx, cancel := c.probeContext(ctx)
	first, err := c.page(probeCtx, query, pageSize, "")
	cancel()
	if err != nil {
		return nil, err
	}
	if first.HitCount == nil || *first.HitCount < 0 {
		return nil, &ncbi.ProtocolError{Endpoint: "europepmc", Field: "hitCount", Query: query}
	}
	hits := *first.HitCount
	pages := (hits + pageSize - 1) / pageSize
	log.Info("europe pmc search", zap.Int("hit_count", hits), zap.Int("pages", pages))

	seen := make(map[string]struct{}, min(hits, pageSize))
	cursor := initialCursor
	for i := 0; i < pages; i++ {
		resp, err := c.page(ctx, query, pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		for _, e := range resp.ResultList.Result {
			if k := e.key(); k != "" {
				seen[k] = struct{}{}
			}
		}
		log.Debug("europe pmc page",
			zap.Int("page", i+1),
			zap.Int("results", len(resp.ResultList.Result)),
			zap.Int("distinct", len(seen)))
		if resp.NextCursorMark != "" {
			cursor = resp.NextCursorMark
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &SearchResult{HitCount: hits, IDs: ids}, nil
}

// page issues one search request. An empty cursor omits cursorMark.
func (c *Client) page(ctx context.Context, query string, pageSize int, cursor string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("resultType", "idlist")
	params.Set("format", "JSON")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("synonym", "TRUE")
	params.Set("query", query)
	if cursor != "" {
		params.Set("cursorMark", cursor)
	}

	body, err := c.DoGetURL(ctx, c.URL, params)
	if err != nil {
		return nil, fmt.Errorf("europe pmc request failed: %w", err)
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing europe pmc response: %w", err)
	}
	return &resp, nil
}

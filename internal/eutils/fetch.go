package eutils

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/henrybloomingdale/litfetch/internal/ncbi"
)

const efetchEndpoint = "efetch.fcgi"

// FetchOne retrieves a single PubMed record. The slice is empty when the
// citation has no title or abstract.
func (c *Client) FetchOne(ctx context.Context, id string) ([]Record, error) {
	ids, skipped := normalizeIDs([]string{id})
	if len(skipped) > 0 {
		return nil, skipped[0].Err
	}
	body, err := c.DoGet(ctx, efetchEndpoint, fetchParams(ids))
	if err != nil {
		return nil, fmt.Errorf("fetch request failed: %w", err)
	}
	return parseRecords(body)
}

// FetchAll retrieves PubMed records in batches of FetchBatch ids. A batch
// whose request or response fails is recorded in the result, the client
// waits FailureDelay, and the next batch proceeds. The error is non-nil
// only when ctx ends.
func (c *Client) FetchAll(ctx context.Context, ids []string) (*FetchResult[Record], error) {
	return runBatches(ctx, c, ids, c.FetchBatch, func(ctx context.Context, batch []string) ([]Record, error) {
		body, err := c.DoGet(ctx, efetchEndpoint, fetchParams(batch))
		if err != nil {
			return nil, err
		}
		return parseRecords(body)
	})
}

// FetchMeshAll retrieves MeSH headings in batches of MeshBatch ids, sending
// each id list as a POST body. Failure handling matches FetchAll.
func (c *Client) FetchMeshAll(ctx context.Context, ids []string) (*FetchResult[MeshRecord], error) {
	return runBatches(ctx, c, ids, c.MeshBatch, func(ctx context.Context, batch []string) ([]MeshRecord, error) {
		body, err := c.DoPost(ctx, efetchEndpoint, fetchParams(batch))
		if err != nil {
			return nil, err
		}
		return parseMeshRecords(body)
	})
}

func fetchParams(ids []string) url.Values {
	params := url.Values{}
	params.Set("db", string(PubMed))
	params.Set("retmode", "xml")
	params.Set("id", strings.Join(ids, ","))
	return params
}

// normalizeIDs keeps the first whitespace-delimited token of each input
// line. Blank lines and tokens that would corrupt the comma-joined id
// list are skipped.
func normalizeIDs(lines []string) ([]string, []SkippedID) {
	ids := make([]string, 0, len(lines))
	var skipped []SkippedID
	for i, line := range lines {
		fields := strings.Fields(line)
		var ferr *ncbi.FormatError
		switch {
		case len(fields) == 0:
			ferr = &ncbi.FormatError{Value: line, Reason: "empty"}
		case strings.ContainsAny(fields[0], ",;"):
			ferr = &ncbi.FormatError{Value: line, Reason: "contains a list separator"}
		}
		if ferr != nil {
			skipped = append(skipped, SkippedID{Position: i, Value: line, Reason: ferr.Reason, Err: ferr})
			continue
		}
		ids = append(ids, fields[0])
	}
	return ids, skipped
}

func runBatches[T any](ctx context.Context, c *Client, lines []string, size int, fetch func(context.Context, []string) ([]T, error)) (*FetchResult[T], error) {
	if size <= 0 {
		size = FetchBatchSize
	}
	ids, skipped := normalizeIDs(lines)
	result := &FetchResult[T]{Records: []T{}, Skipped: skipped}
	log := c.Logger.With(zap.Int("ids", len(ids)), zap.Int("batch_size", size))
	if len(skipped) > 0 {
		log.Debug("skipped malformed ids", zap.Int("skipped", len(skipped)))
	}

	for index, start := 0, 0; start < len(ids); index, start = index+1, start+size {
		end := min(start+size, len(ids))
		batch := ids[start:end]

		result.Requests++
		rows, err := fetch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Failed = append(result.Failed, FailedBatch{
				Index:  index,
				IDs:    append([]string(nil), batch...),
				Reason: err.Error(),
				Err:    err,
			})
			log.Warn("fetch batch failed", zap.Int("batch", index), zap.Int("size", len(batch)), zap.Error(err))
			if ncbi.IsTransport(err) {
				if err := c.Clock.Sleep(ctx, c.FailureDelay); err != nil {
					return result, err
				}
			}
			continue
		}
		result.Records = append(result.Records, rows...)
		log.Debug("fetch batch", zap.Int("batch", index), zap.Int("rows", len(rows)))
	}

	return result, nil
}

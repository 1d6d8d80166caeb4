package elastic

import (
	"context"

	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rubiojr/esview/pkg/core"
)

type statsResponse struct {
	Indices map[string]struct {
		Total struct {
			Docs struct {
				Count   int64 `json:"count"`
				Deleted int64 `json:"deleted"`
			} `json:"docs"`
			Store struct {
				SizeInBytes int64 `json:"size_in_bytes"`
			} `json:"store"`
			Indexing struct {
				IndexTotal int64 `json:"index_total"`
			} `json:"indexing"`
			Search struct {
				QueryTotal int64 `json:"query_total"`
			} `json:"search"`
		} `json:"total"`
	} `json:"indices"`
}

// Stats fetches the primary counters of index. It returns nil and a
// diagnostic on failure.
func (c *Client) Stats(ctx context.Context, index string) (*core.IndexStats, *Diagnostic) {
	var resp statsResponse
	err := c.do(OpStats, index, func() (*esapi.Response, error) {
		return c.es.Indices.Stats(
			c.es.Indices.Stats.WithContext(ctx),
			c.es.Indices.Stats.WithIndex(index),
		)
	}, &resp)
	if err != nil {
		c.logger.Errorf("getting stats of %s: %v", index, err)
		return nil, newDiagnostic(OpStats, index, err)
	}

	entry, ok := resp.Indices[index]
	if !ok {
		if len(resp.Indices) != 1 {
			err := errors.Errorf("stats response has no entry for index %s", index)
			return nil, newDiagnostic(OpStats, index, err)
		}
		for _, only := range resp.Indices {
			entry = only
		}
	}

	return &core.IndexStats{
		Index:          index,
		DocsCount:      entry.Total.Docs.Count,
		DocsDeleted:    entry.Total.Docs.Deleted,
		StoreSizeBytes: entry.Total.Store.SizeInBytes,
		IndexTotal:     entry.Total.Indexing.IndexTotal,
		QueryTotal:     entry.Total.Search.QueryTotal,
	}, nil
}

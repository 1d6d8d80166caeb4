package elastic

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rubiojr/esview/pkg/core"
)

// DefaultMaxResults caps the number of documents fetched per index.
const DefaultMaxResults = 100

type searchResponse struct {
	Hits struct {
		Total TotalHits `json:"total"`
		Hits  []hit     `json:"hits"`
	} `json:"hits"`
}

type hit struct {
	ID     string          `json:"_id"`
	Type   string          `json:"_type"`
	Index  string          `json:"_index"`
	Source json.RawMessage `json:"_source"`
}

// matchAllQuery builds the bounded match-all body sorted by ascending _id.
func matchAllQuery(size int) ([]byte, error) {
	return json.Marshal(map[string]any{
		"size":  size,
		"query": map[string]any{"match_all": map[string]any{}},
		"sort":  []any{map[string]any{"_id": "asc"}},
	})
}

// Search resolves the document type of index through Mapping and fetches at
// most maxResults documents. Mapping faults are logged and the default type
// is used.
func (c *Client) Search(ctx context.Context, index string, maxResults int) (*core.ResultSet, *Diagnostic) {
	docType, _, diag := c.Mapping(ctx, index)
	if diag != nil {
		c.logger.Warnf("searching %s with type %s after mapping failure: %s", index, docType, diag.Message)
	}
	return c.SearchType(ctx, index, docType, maxResults)
}

// SearchType fetches at most maxResults documents of the given type, sorted
// by ascending _id. Any fault yields an empty result set and a diagnostic.
func (c *Client) SearchType(ctx context.Context, index, docType string, maxResults int) (*core.ResultSet, *Diagnostic) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if docType == "" {
		docType = core.DefaultDocType
	}

	empty := core.Empty(index)
	empty.DocType = docType

	body, err := matchAllQuery(maxResults)
	if err != nil {
		return empty, newDiagnostic(OpSearch, index, errors.WithStack(err))
	}

	var resp searchResponse
	err = c.do(OpSearch, index, func() (*esapi.Response, error) {
		return c.es.Search(
			c.es.Search.WithContext(ctx),
			c.es.Search.WithIndex(index),
			c.es.Search.WithDocumentType(docType),
			c.es.Search.WithBody(bytes.NewReader(body)),
		)
	}, &resp)
	if err != nil {
		c.logger.Errorf("searching %s: %v", index, err)
		return empty, newDiagnostic(OpSearch, index, err)
	}

	total := resp.Hits.Total
	if !total.Valid() {
		c.logger.Warnf("search of %s returned a %s hits.total (%s), counting 0", index, total.Kind, string(total.Raw))
	}

	rs := &core.ResultSet{
		Index:     index,
		DocType:   docType,
		Total:     total.Count(),
		Documents: make([]*core.Document, 0, len(resp.Hits.Hits)),
	}
	for i, h := range resp.Hits.Hits {
		doc, err := h.document(index, docType)
		if err != nil {
			err = errors.Wrapf(err, "hit %d (_id %q)", i, h.ID)
			c.logger.Errorf("searching %s: %v", index, err)
			return empty, newDiagnostic(OpDocument, index, err)
		}
		rs.Documents = append(rs.Documents, doc)
	}

	c.logger.Debugf("found %d records in %s, fetched %d", rs.Total, index, rs.Len())
	return rs, nil
}

func (h hit) document(index, docType string) (*core.Document, error) {
	if h.Index != "" {
		index = h.Index
	}
	if h.Type != "" {
		docType = h.Type
	}
	doc := core.NewDocument(h.ID, docType, index)
	if err := doc.SetSource(h.Source); err != nil {
		return nil, errors.WithStack(err)
	}
	return doc, nil
}

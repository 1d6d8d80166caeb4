package elastic

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rubiojr/esview/pkg/core"
)

// ListIndices returns every index name known to the cluster, sorted in
// descending lexicographic order. On failure it returns an empty list and a
// diagnostic.
func (c *Client) ListIndices(ctx context.Context) ([]string, *Diagnostic) {
	var aliases map[string]json.RawMessage
	err := c.do(OpIndices, "*", func() (*esapi.Response, error) {
		return c.es.Indices.GetAlias(
			c.es.Indices.GetAlias.WithContext(ctx),
			c.es.Indices.GetAlias.WithIndex("*"),
		)
	}, &aliases)
	if err != nil {
		c.logger.Errorf("listing indices: %v", err)
		return []string{}, newDiagnostic(OpIndices, "", err)
	}

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// typelessKeys are the members a typeless (7.x) mappings object can carry at
// its top level. Their presence means there is no explicit mapping type.
var typelessKeys = map[string]bool{
	"properties":        true,
	"dynamic":           true,
	"dynamic_templates": true,
	"date_detection":    true,
	"numeric_detection": true,
	"_source":           true,
	"_meta":             true,
	"_routing":          true,
	"_field_names":      true,
	"runtime":           true,
}

type indexMapping struct {
	Mappings map[string]json.RawMessage `json:"mappings"`
}

// Mapping resolves the document type of an index together with its schema.
// Clusters that still use mapping types (6.x) yield the explicit type name;
// typeless mappings, unknown indices and failures yield core.DefaultDocType.
func (c *Client) Mapping(ctx context.Context, index string) (string, map[string]any, *Diagnostic) {
	var resp map[string]indexMapping
	err := c.do(OpMapping, index, func() (*esapi.Response, error) {
		return c.es.Indices.GetMapping(
			c.es.Indices.GetMapping.WithContext(ctx),
			c.es.Indices.GetMapping.WithIndex(index),
		)
	}, &resp)
	if err != nil {
		c.logger.Errorf("getting mapping of %s: %v", index, err)
		return core.DefaultDocType, nil, newDiagnostic(OpMapping, index, err)
	}

	entry, ok := resp[index]
	if !ok {
		// An alias answers with the concrete index name.
		if len(resp) != 1 {
			return core.DefaultDocType, nil, nil
		}
		for _, only := range resp {
			entry = only
		}
	}

	docType, raw := resolveDocType(entry.Mappings)
	if raw == nil {
		return docType, nil, nil
	}

	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		err = errors.Wrapf(err, "decoding mapping of %s", index)
		return docType, nil, newDiagnostic(OpMapping, index, err)
	}
	return docType, schema, nil
}

// resolveDocType picks the mapping type out of a mappings object and returns
// the raw schema that belongs to it.
func resolveDocType(mappings map[string]json.RawMessage) (string, json.RawMessage) {
	if len(mappings) == 0 {
		return core.DefaultDocType, nil
	}

	for key := range mappings {
		if typelessKeys[key] {
			whole, err := json.Marshal(mappings)
			if err != nil {
				return core.DefaultDocType, nil
			}
			return core.DefaultDocType, whole
		}
	}

	keys := make([]string, 0, len(mappings))
	for key := range mappings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if isJSONObject(mappings[key]) {
			return key, mappings[key]
		}
	}
	return core.DefaultDocType, nil
}

func isJSONObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

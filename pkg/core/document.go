package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata keys carried by every search hit.
const (
	MetaID    = "_id"
	MetaType  = "_type"
	MetaIndex = "_index"

	// DefaultDocType is used when an index mapping declares no explicit type.
	DefaultDocType = "_doc"
)

// IsMetaKey reports whether key is one of the reserved hit metadata keys.
func IsMetaKey(key string) bool {
	return key == MetaID || key == MetaType || key == MetaIndex
}

// Document is a single search hit: the document source fields plus the three
// metadata values every hit carries.
//
// Source fields keep the order in which they appeared in the hit's _source
// object. The order matters twice: the result normalizer derives its column
// order from it, and the JSON export writes the fields back in the same order
// the cluster returned them.
//
// Source keys that collide with the metadata keys (_id, _type, _index) are
// kept in Fields but are shadowed by the metadata values when the document is
// serialized.
type Document struct {
	ID    string
	Type  string
	Index string

	fields map[string]any
	keys   []string
}

// NewDocument creates an empty document with the given metadata.
func NewDocument(id, docType, index string) *Document {
	return &Document{
		ID:     id,
		Type:   docType,
		Index:  index,
		fields: make(map[string]any),
	}
}

// Set stores a source field. New keys are appended to the field order;
// existing keys keep their position.
func (d *Document) Set(key string, value any) {
	if d.fields == nil {
		d.fields = make(map[string]any)
	}
	if _, exists := d.fields[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.fields[key] = value
}

// Get returns a source field and whether it is present.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Keys returns the source field names in first-seen order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of source fields.
func (d *Document) Len() int {
	return len(d.keys)
}

// SetSource replaces the document source with the decoded JSON object in raw,
// preserving key order. Numbers are kept as json.Number so that large integers
// survive a round trip untouched. A null or empty source leaves the document
// without fields.
func (d *Document) SetSource(raw json.RawMessage) error {
	d.fields = make(map[string]any)
	d.keys = nil

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	return decodeOrderedObject(raw, func(key string, value any) {
		d.Set(key, value)
	})
}

// MarshalJSON writes the source fields in their original order followed by
// the _id, _type and _index metadata.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	writeField := func(key string, value any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := encodeCompact(&buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		return encodeCompact(&buf, value)
	}

	for _, key := range d.keys {
		if IsMetaKey(key) {
			continue
		}
		if err := writeField(key, d.fields[key]); err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", key, err)
		}
	}
	for _, meta := range [][2]string{{MetaID, d.ID}, {MetaType, d.Type}, {MetaIndex, d.Index}} {
		if err := writeField(meta[0], meta[1]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flattened document as produced by MarshalJSON: the
// metadata keys populate ID, Type and Index, every other key becomes a source
// field.
func (d *Document) UnmarshalJSON(data []byte) error {
	d.fields = make(map[string]any)
	d.keys = nil

	return decodeOrderedObject(data, func(key string, value any) {
		if IsMetaKey(key) {
			s, _ := value.(string)
			switch key {
			case MetaID:
				d.ID = s
			case MetaType:
				d.Type = s
			case MetaIndex:
				d.Index = s
			}
			return
		}
		d.Set(key, value)
	})
}

// ResultSet is the ordered outcome of one bounded search.
type ResultSet struct {
	Index   string
	DocType string
	// Total is the cluster-reported number of matching documents, which can
	// exceed len(Documents) when the search cap truncated the result.
	Total     int64
	Documents []*Document
}

// Len returns the number of materialized documents. A nil result set has
// zero documents.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Documents)
}

// Empty returns an empty result set bound to index.
func Empty(index string) *ResultSet {
	return &ResultSet{Index: index, Documents: []*Document{}}
}

func encodeCompact(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encoder always terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func decodeOrderedObject(data []byte, fn func(key string, value any)) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document must be a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading field name: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("reading field %q: %w", key, err)
		}
		fn(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("closing document: %w", err)
	}
	return nil
}

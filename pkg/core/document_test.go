package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentSetSourcePreservesOrder(t *testing.T) {
	doc := NewDocument("1", "doc", "logs")
	err := doc.SetSource(json.RawMessage(`{"zeta": 1, "alpha": "a", "mid": {"x": true}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, doc.Keys())

	v, ok := doc.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, json.Number("1"), v)
}

func TestDocumentSetSourceNull(t *testing.T) {
	doc := NewDocument("1", "doc", "logs")
	require.NoError(t, doc.SetSource(json.RawMessage(`null`)))
	assert.Equal(t, 0, doc.Len())

	require.NoError(t, doc.SetSource(nil))
	assert.Equal(t, 0, doc.Len())
}

func TestDocumentSetSourceRejectsNonObject(t *testing.T) {
	doc := NewDocument("1", "doc", "logs")
	assert.Error(t, doc.SetSource(json.RawMessage(`[1,2]`)))
}

func TestDocumentMarshalOrderAndMetadata(t *testing.T) {
	doc := NewDocument("42", "_doc", "people")
	doc.Set("name", "張三")
	doc.Set("tag", "<b>")
	doc.Set("_id", "shadowed")

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, `{"name":"張三"`), s)
	assert.Less(t, strings.Index(s, `"tag"`), strings.Index(s, `"_id"`))
	assert.Contains(t, s, `"_id":"42"`)
	assert.NotContains(t, s, "shadowed")
	assert.Contains(t, s, `"_index":"people"`)
}

func TestDocumentJSONRoundTrip(t *testing.T) {
	doc := NewDocument("7", "doc", "idx")
	require.NoError(t, doc.SetSource(json.RawMessage(`{"b": 12345678901234567890, "a": [1, "two"], "c": null}`)))

	out, err := json.Marshal(doc)
	require.NoError(t, err)

	var back Document
	require.NoError(t, json.Unmarshal(out, &back))

	assert.Equal(t, doc.ID, back.ID)
	assert.Equal(t, doc.Type, back.Type)
	assert.Equal(t, doc.Index, back.Index)
	assert.Equal(t, doc.Keys(), back.Keys())
	for _, k := range doc.Keys() {
		want, _ := doc.Get(k)
		got, _ := back.Get(k)
		assert.Equal(t, want, got, "field %s", k)
	}
}

func TestResultSetLenNil(t *testing.T) {
	var rs *ResultSet
	assert.Equal(t, 0, rs.Len())
	assert.Equal(t, 0, Empty("x").Len())
}

func TestConnectionDefaultsAndURL(t *testing.T) {
	c := Connection{Host: " es.local "}.WithDefaults()
	assert.Equal(t, "es.local", c.Host)
	assert.Equal(t, 9200, c.Port)
	assert.Equal(t, "http", c.Scheme)
	assert.Equal(t, "http://es.local:9200", c.URL())
	assert.NoError(t, c.Validate())
}

func TestConnectionValidate(t *testing.T) {
	tests := []struct {
		name string
		conn Connection
	}{
		{"empty host", Connection{Port: 9200, Scheme: "http"}},
		{"bad port", Connection{Host: "h", Port: 70000, Scheme: "http"}},
		{"bad scheme", Connection{Host: "h", Port: 9200, Scheme: "ftp"}},
		{"path in host", Connection{Host: "h/x", Port: 9200, Scheme: "http"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.conn.Validate())
		})
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{json.Number("3.50"), "3.50"},
		{true, "true"},
		{float64(2.5), "2.5"},
		{map[string]any{"k": "<v>"}, `{"k":"<v>"}`},
		{[]any{"中文", json.Number("1")}, `["中文",1]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, strings.Repeat("a", 97)+"...", Truncate(strings.Repeat("a", 150), 100))
	assert.Equal(t, "日本...", Truncate("日本語のテキスト", 5))
}

func TestFormatFields(t *testing.T) {
	doc := NewDocument("1", "doc", "idx")
	doc.Set("title", strings.Repeat("x", 120))

	out := FormatFields(doc)
	assert.Contains(t, out, "_id: 1")
	assert.Contains(t, out, "title: "+strings.Repeat("x", 97)+"...")
	assert.Equal(t, "", FormatFields(nil))
}

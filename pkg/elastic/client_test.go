package elastic

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic/elastictest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{Timeout: 2 * time.Second, MaxRetries: 1}
}

func connect(t *testing.T, cluster *elastictest.Cluster) *Client {
	t.Helper()
	c, err := Connect(context.Background(), cluster.Connection(), testOptions())
	require.NoError(t, err)
	return c
}

func logsIndex() *elastictest.Index {
	return &elastictest.Index{
		Name: "logs-2024.01",
		Docs: []elastictest.Doc{
			{ID: "b", Source: `{"msg":"second","level":"warn"}`},
			{ID: "a", Source: `{"msg":"first","extra":{"k":1}}`},
			{ID: "c", Source: `{"msg":"third"}`},
		},
		Stats: core.IndexStats{
			DocsCount:      3,
			DocsDeleted:    1,
			StoreSizeBytes: 4096,
			IndexTotal:     7,
			QueryTotal:     11,
		},
	}
}

// closedConnection returns a connection to a port nothing listens on.
func closedConnection(t *testing.T) core.Connection {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(l.Addr().String())
	require.NoError(t, l.Close())
	p, _ := strconv.Atoi(port)
	return core.Connection{Host: host, Port: p, Scheme: "http"}
}

func TestConnectUnreachable(t *testing.T) {
	conn := closedConnection(t)

	c, err := Connect(context.Background(), conn, Options{Timeout: time.Second})
	require.Error(t, err)
	assert.Nil(t, c)

	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, conn.URL(), ce.Conn.URL())
	assert.True(t, IsConnectivity(err))
	assert.Contains(t, err.Error(), conn.URL())
}

func TestConnectRetriesTimedOutAttempts(t *testing.T) {
	cluster := elastictest.New(t)
	cluster.Stall(2)

	opts := Options{Timeout: 150 * time.Millisecond, MaxRetries: 3}
	_, err := Connect(context.Background(), cluster.Connection(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, cluster.Stalled())
	reqs := cluster.Requests()
	require.Greater(t, len(reqs), 2)
	assert.Equal(t, http.MethodHead, reqs[len(reqs)-1].Method)
}

func TestConnectGivesUpAfterRetryBudget(t *testing.T) {
	cluster := elastictest.New(t)
	cluster.Stall(-1)

	opts := Options{Timeout: 150 * time.Millisecond, MaxRetries: 3}
	_, err := Connect(context.Background(), cluster.Connection(), opts)
	require.Error(t, err)
	assert.True(t, IsConnectivity(err))

	// One attempt plus three retries.
	assert.Len(t, cluster.Requests(), 4)
	assert.Equal(t, 4, cluster.Stalled())
}

func TestConnectWithoutRetries(t *testing.T) {
	cluster := elastictest.New(t)
	cluster.Stall(-1)

	opts := Options{Timeout: 150 * time.Millisecond, MaxRetries: 0}
	_, err := Connect(context.Background(), cluster.Connection(), opts)
	require.Error(t, err)
	assert.True(t, IsConnectivity(err))
	assert.Len(t, cluster.Requests(), 1)
}

func TestConnectInvalidConnection(t *testing.T) {
	_, err := Connect(context.Background(), core.Connection{Host: "", Port: 9200}, testOptions())
	assert.True(t, IsConnectivity(err))
}

func TestListIndicesDescending(t *testing.T) {
	cluster := elastictest.New(t,
		&elastictest.Index{Name: "logs-2024.01"},
		&elastictest.Index{Name: "metrics"},
		&elastictest.Index{Name: "logs-2024.03"},
		&elastictest.Index{Name: "audit"},
	)
	c := connect(t, cluster)

	names, diag := c.ListIndices(context.Background())
	require.Nil(t, diag)
	assert.Equal(t, []string{"metrics", "logs-2024.03", "logs-2024.01", "audit"}, names)
	assert.NotEmpty(t, cluster.RequestsTo("/*/_alias"))
}

func TestListIndicesFailureIsRecovered(t *testing.T) {
	cluster := elastictest.New(t, logsIndex())
	c := connect(t, cluster)
	cluster.Fail(elastictest.OpAlias, http.StatusForbidden)

	names, diag := c.ListIndices(context.Background())
	assert.NotNil(t, names)
	assert.Empty(t, names)
	require.NotNil(t, diag)
	assert.Equal(t, OpIndices, diag.Op)
	assert.Contains(t, diag.Message, "403")

	var qe *QueryError
	require.ErrorAs(t, diag.Err, &qe)
	assert.Equal(t, "fake_failure", qe.Type)
}

func TestMappingTypeResolution(t *testing.T) {
	cluster := elastictest.New(t,
		&elastictest.Index{Name: "legacy", DocType: "doc", Docs: []elastictest.Doc{{ID: "1", Source: `{"a":1}`}}},
		&elastictest.Index{Name: "modern", Docs: []elastictest.Doc{{ID: "1", Source: `{"a":1}`}}},
	)
	c := connect(t, cluster)
	ctx := context.Background()

	docType, schema, diag := c.Mapping(ctx, "legacy")
	require.Nil(t, diag)
	assert.Equal(t, "doc", docType)
	assert.Contains(t, schema, "properties")

	docType, schema, diag = c.Mapping(ctx, "modern")
	require.Nil(t, diag)
	assert.Equal(t, core.DefaultDocType, docType)
	assert.Contains(t, schema, "properties")

	docType, schema, diag = c.Mapping(ctx, "missing")
	assert.Equal(t, core.DefaultDocType, docType)
	assert.Nil(t, schema)
	require.NotNil(t, diag)
	assert.Contains(t, diag.Message, "index_not_found_exception")
}

func TestResolveDocType(t *testing.T) {
	raw := func(s string) map[string]json.RawMessage {
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(s), &m))
		return m
	}

	docType, schema := resolveDocType(nil)
	assert.Equal(t, core.DefaultDocType, docType)
	assert.Nil(t, schema)

	docType, _ = resolveDocType(raw(`{"dynamic":"strict","properties":{}}`))
	assert.Equal(t, core.DefaultDocType, docType)

	docType, schema = resolveDocType(raw(`{"tweet":{"properties":{"a":{}}}}`))
	assert.Equal(t, "tweet", docType)
	assert.JSONEq(t, `{"properties":{"a":{}}}`, string(schema))

	docType, _ = resolveDocType(raw(`{"zeta":"x","alpha":{}}`))
	assert.Equal(t, "alpha", docType)
}

func TestStats(t *testing.T) {
	cluster := elastictest.New(t, logsIndex())
	c := connect(t, cluster)

	stats, diag := c.Stats(context.Background(), "logs-2024.01")
	require.Nil(t, diag)
	assert.Equal(t, &core.IndexStats{
		Index:          "logs-2024.01",
		DocsCount:      3,
		DocsDeleted:    1,
		StoreSizeBytes: 4096,
		IndexTotal:     7,
		QueryTotal:     11,
	}, stats)

	stats, diag = c.Stats(context.Background(), "nope")
	assert.Nil(t, stats)
	assert.NotNil(t, diag)
}

func TestSearchSortedAndScoped(t *testing.T) {
	cluster := elastictest.New(t, logsIndex())
	c := connect(t, cluster)

	rs, diag := c.Search(context.Background(), "logs-2024.01", 100)
	require.Nil(t, diag)
	require.Equal(t, 3, rs.Len())
	assert.Equal(t, int64(3), rs.Total)
	assert.Equal(t, core.DefaultDocType, rs.DocType)

	ids := []string{}
	for _, d := range rs.Documents {
		ids = append(ids, d.ID)
		assert.Equal(t, "logs-2024.01", d.Index)
		assert.Equal(t, "_doc", d.Type)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, []string{"msg", "level"}, rs.Documents[1].Keys())

	reqs := cluster.RequestsTo("/logs-2024.01/_doc/_search")
	require.Len(t, reqs, 1)
	assert.JSONEq(t,
		`{"size":100,"query":{"match_all":{}},"sort":[{"_id":"asc"}]}`,
		string(reqs[0].Body))
}

func TestSearchRespectsCap(t *testing.T) {
	idx := &elastictest.Index{Name: "big"}
	for i := 0; i < 150; i++ {
		idx.Docs = append(idx.Docs, elastictest.Doc{ID: strconv.Itoa(1000 + i), Source: `{"n":1}`})
	}
	cluster := elastictest.New(t, idx)
	c := connect(t, cluster)

	rs, diag := c.Search(context.Background(), "big", 100)
	require.Nil(t, diag)
	assert.Equal(t, 100, rs.Len())
	assert.Equal(t, int64(150), rs.Total)
}

// A 6.x cluster reports hits.total as a bare integer and keeps mapping types.
func TestSearchLegacyTotal(t *testing.T) {
	idx := &elastictest.Index{
		Name:    "legacy",
		DocType: "doc",
		Total:   json.RawMessage(`42`),
		Docs:    []elastictest.Doc{{ID: "1", Source: `{"a":1}`}},
	}
	cluster := elastictest.New(t, idx)
	c := connect(t, cluster)

	rs, diag := c.Search(context.Background(), "legacy", 100)
	require.Nil(t, diag)
	assert.Equal(t, int64(42), rs.Total)
	assert.Equal(t, "doc", rs.DocType)
	assert.Equal(t, "doc", rs.Documents[0].Type)
	assert.Len(t, cluster.RequestsTo("/legacy/doc/_search"), 1)
}

func TestSearchObjectTotal(t *testing.T) {
	idx := &elastictest.Index{
		Name:  "modern",
		Total: json.RawMessage(`{"value":42,"relation":"eq"}`),
		Docs:  []elastictest.Doc{{ID: "1", Source: `{"a":1}`}},
	}
	cluster := elastictest.New(t, idx)
	c := connect(t, cluster)

	rs, diag := c.Search(context.Background(), "modern", 100)
	require.Nil(t, diag)
	assert.Equal(t, int64(42), rs.Total)
}

func TestSearchMalformedTotalIsZero(t *testing.T) {
	idx := &elastictest.Index{
		Name:  "odd",
		Total: json.RawMessage(`"lots"`),
		Docs:  []elastictest.Doc{{ID: "1", Source: `{"a":1}`}},
	}
	cluster := elastictest.New(t, idx)
	c := connect(t, cluster)

	rs, diag := c.Search(context.Background(), "odd", 100)
	require.Nil(t, diag)
	assert.Equal(t, int64(0), rs.Total)
	assert.Equal(t, 1, rs.Len())
}

func TestSearchMissingTypeFallsBack(t *testing.T) {
	idx := &elastictest.Index{
		Name:     "typeless",
		OmitType: true,
		Docs:     []elastictest.Doc{{ID: "1", Source: `{"a":1}`}, {ID: "2"}},
	}
	cluster := elastictest.New(t, idx)
	c := connect(t, cluster)

	rs, diag := c.Search(context.Background(), "typeless", 100)
	require.Nil(t, diag)
	require.Equal(t, 2, rs.Len())
	assert.Equal(t, core.DefaultDocType, rs.Documents[0].Type)
	assert.Equal(t, 0, rs.Documents[1].Len())
}

func TestSearchFailureIsRecovered(t *testing.T) {
	cluster := elastictest.New(t, logsIndex())
	c := connect(t, cluster)
	cluster.Fail(elastictest.OpSearch, http.StatusBadRequest)

	rs, diag := c.Search(context.Background(), "logs-2024.01", 100)
	require.NotNil(t, rs)
	assert.Equal(t, 0, rs.Len())
	assert.Equal(t, "logs-2024.01", rs.Index)
	require.NotNil(t, diag)
	assert.Equal(t, OpSearch, diag.Op)
	assert.NotEmpty(t, diag.Trace)
	assert.True(t, strings.Contains(diag.Trace, "elastic."), "trace should carry stack frames: %s", diag.Trace)
}

func TestSearchMappingFailureUsesDefaultType(t *testing.T) {
	cluster := elastictest.New(t, logsIndex())
	c := connect(t, cluster)
	cluster.Fail(elastictest.OpMapping, http.StatusInternalServerError)

	rs, diag := c.Search(context.Background(), "logs-2024.01", 100)
	require.Nil(t, diag)
	assert.Equal(t, core.DefaultDocType, rs.DocType)
	assert.Equal(t, 3, rs.Len())
}

func TestParseQueryError(t *testing.T) {
	qe := parseQueryError(OpSearch, "x", 400, strings.NewReader(`{"error":"old style","status":400}`))
	assert.Equal(t, "old style", qe.Reason)

	qe = parseQueryError(OpSearch, "x", 502, strings.NewReader(`Bad Gateway`))
	assert.Equal(t, "Bad Gateway", qe.Reason)
	assert.Equal(t, "search x: status 502: Bad Gateway", qe.Error())
}

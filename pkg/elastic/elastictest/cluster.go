// Package elastictest runs an in-process fake Elasticsearch cluster for tests.
//
// The fake speaks just enough of the REST API for esview: ping, info,
// get-alias, get-mapping, index stats and a match-all search sorted by _id.
package elastictest

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rubiojr/esview/pkg/core"
)

// Operation names accepted by Cluster.Fail.
const (
	OpInfo    = "info"
	OpAlias   = "alias"
	OpMapping = "mapping"
	OpStats   = "stats"
	OpSearch  = "search"
)

// Doc is one stored document. Source must be a JSON object (or empty).
type Doc struct {
	ID     string
	Source string
}

// Index is one fake index.
type Index struct {
	Name string
	// DocType is the explicit mapping type. Empty means a typeless mapping.
	DocType string
	// OmitType drops _type from search hits, like 8.x clusters do.
	OmitType bool
	// Total replaces hits.total in search answers verbatim when set.
	Total json.RawMessage
	Docs  []Doc
	Stats core.IndexStats
}

// Request is a recorded incoming request.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

type Cluster struct {
	server *httptest.Server

	mu       sync.Mutex
	indices  map[string]*Index
	failures map[string]int
	requests []Request
	stalls   int
	stalled  int
}

// New starts a fake cluster that is closed when the test ends.
func New(t testing.TB, indices ...*Index) *Cluster {
	t.Helper()

	c := &Cluster{
		indices:  make(map[string]*Index),
		failures: make(map[string]int),
	}
	for _, idx := range indices {
		c.indices[idx.Name] = idx
	}

	c.server = httptest.NewServer(c.router())
	t.Cleanup(c.server.Close)
	return c
}

// URL returns the base URL of the fake.
func (c *Cluster) URL() string {
	return c.server.URL
}

// Connection returns a connection descriptor pointing at the fake.
func (c *Cluster) Connection() core.Connection {
	host, port, _ := net.SplitHostPort(c.server.Listener.Addr().String())
	p, _ := strconv.Atoi(port)
	return core.Connection{Host: host, Port: p, Scheme: "http"}
}

// Add registers (or replaces) an index.
func (c *Cluster) Add(idx *Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indices[idx.Name] = idx
}

// Fail makes every request of the given operation answer with status.
// A zero status clears the failure.
func (c *Cluster) Fail(op string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status == 0 {
		delete(c.failures, op)
		return
	}
	c.failures[op] = status
}

// Stall makes the next n requests hang until the client gives up on them.
// A negative n stalls every request.
func (c *Cluster) Stall(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stalls = n
}

// Stalled returns how many requests were left unanswered.
func (c *Cluster) Stalled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stalled
}

func (c *Cluster) takeStall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stalls == 0 {
		return false
	}
	if c.stalls > 0 {
		c.stalls--
	}
	c.stalled++
	return true
}

// Requests returns a copy of the recorded requests.
func (c *Cluster) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.requests...)
}

// RequestsTo returns the recorded requests whose path is path.
func (c *Cluster) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range c.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (c *Cluster) router() http.Handler {
	r := chi.NewRouter()
	r.Use(c.record)

	r.Head("/", c.handleInfo)
	r.Get("/", c.handleInfo)
	r.Get("/{index}/_alias", c.handleAlias)
	r.Get("/{index}/_mapping", c.handleMapping)
	r.Get("/{index}/_stats", c.handleStats)
	r.Post("/{index}/_search", c.handleSearch)
	r.Get("/{index}/_search", c.handleSearch)
	r.Post("/{index}/{type}/_search", c.handleSearch)
	r.Get("/{index}/{type}/_search", c.handleSearch)
	return r
}

func (c *Cluster) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}
		c.mu.Lock()
		c.requests = append(c.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
		c.mu.Unlock()

		if c.takeStall() {
			select {
			case <-r.Context().Done():
			case <-time.After(10 * time.Second):
			}
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		next.ServeHTTP(w, r)
	})
}

func (c *Cluster) failure(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures[op]
}

func (c *Cluster) lookup(name string) *Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indices[name]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, reason string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"type":   errType,
			"reason": reason,
		},
		"status": status,
	})
}

func (c *Cluster) failed(w http.ResponseWriter, op string) bool {
	status := c.failure(op)
	if status == 0 {
		return false
	}
	writeError(w, status, "fake_failure", op+" failed")
	return true
}

func (c *Cluster) handleInfo(w http.ResponseWriter, r *http.Request) {
	if c.failed(w, OpInfo) {
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         "fake",
		"cluster_name": "elastictest",
		"version": map[string]any{
			"number":       "7.17.0",
			"build_flavor": "default",
		},
		"tagline": "You Know, for Search",
	})
}

func (c *Cluster) handleAlias(w http.ResponseWriter, r *http.Request) {
	if c.failed(w, OpAlias) {
		return
	}
	c.mu.Lock()
	out := make(map[string]any, len(c.indices))
	for name := range c.indices {
		out[name] = map[string]any{"aliases": map[string]any{}}
	}
	c.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (c *Cluster) missing(w http.ResponseWriter, name string) {
	writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")
}

func (c *Cluster) handleMapping(w http.ResponseWriter, r *http.Request) {
	if c.failed(w, OpMapping) {
		return
	}
	name := chi.URLParam(r, "index")
	idx := c.lookup(name)
	if idx == nil {
		c.missing(w, name)
		return
	}

	properties := map[string]any{}
	for _, d := range idx.Docs {
		var src map[string]any
		if json.Unmarshal([]byte(d.Source), &src) == nil {
			for k := range src {
				properties[k] = map[string]any{"type": "keyword"}
			}
		}
	}
	schema := map[string]any{"properties": properties}

	var mappings any = schema
	if idx.DocType != "" {
		mappings = map[string]any{idx.DocType: schema}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		idx.Name: map[string]any{"mappings": mappings},
	})
}

func (c *Cluster) handleStats(w http.ResponseWriter, r *http.Request) {
	if c.failed(w, OpStats) {
		return
	}
	name := chi.URLParam(r, "index")
	idx := c.lookup(name)
	if idx == nil {
		c.missing(w, name)
		return
	}
	s := idx.Stats
	writeJSON(w, http.StatusOK, map[string]any{
		"indices": map[string]any{
			idx.Name: map[string]any{
				"total": map[string]any{
					"docs":     map[string]any{"count": s.DocsCount, "deleted": s.DocsDeleted},
					"store":    map[string]any{"size_in_bytes": s.StoreSizeBytes},
					"indexing": map[string]any{"index_total": s.IndexTotal},
					"search":   map[string]any{"query_total": s.QueryTotal},
				},
			},
		},
	})
}

type searchBody struct {
	Size *int `json:"size"`
}

func (c *Cluster) handleSearch(w http.ResponseWriter, r *http.Request) {
	if c.failed(w, OpSearch) {
		return
	}
	name := chi.URLParam(r, "index")
	idx := c.lookup(name)
	if idx == nil {
		c.missing(w, name)
		return
	}

	size := 10
	var body searchBody
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
			return
		}
		if body.Size != nil {
			size = *body.Size
		}
	}

	docs := append([]Doc(nil), idx.Docs...)
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	if len(docs) > size {
		docs = docs[:size]
	}

	docType := idx.DocType
	if docType == "" {
		docType = core.DefaultDocType
	}

	hits := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		h := map[string]any{
			"_index": idx.Name,
			"_id":    d.ID,
			"_score": nil,
			"sort":   []string{d.ID},
		}
		if !idx.OmitType {
			h["_type"] = docType
		}
		if d.Source != "" {
			h["_source"] = json.RawMessage(d.Source)
		}
		hits = append(hits, h)
	}

	var total any = map[string]any{"value": len(idx.Docs), "relation": "eq"}
	if idx.Total != nil {
		total = idx.Total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"took":      1,
		"timed_out": false,
		"hits": map[string]any{
			"total":     total,
			"max_score": nil,
			"hits":      hits,
		},
	})
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rubiojr/esview/pkg/config"
	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic/elastictest"
	"github.com/rubiojr/esview/pkg/session"
)

func testConfig(conn core.Connection) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.DefaultPreset = "test"
	cfg.Presets = map[string]config.Preset{
		"test": {Host: conn.Host, Port: conn.Port, Scheme: conn.Scheme},
	}
	cfg.Timeout = config.Duration{Duration: 2 * time.Second}
	cfg.MaxRetries = 1
	return cfg
}

func setupTestWebServer(t *testing.T) (*WebServer, *httptest.Server, *elastictest.Cluster) {
	t.Helper()

	logs := &elastictest.Index{
		Name:  "logs-2024.02",
		Stats: core.IndexStats{DocsCount: 1200, DocsDeleted: 3, StoreSizeBytes: 52431, QueryTotal: 17},
	}
	// 120 documents, more than the search cap.
	for i := 0; i < 120; i++ {
		logs.Docs = append(logs.Docs, elastictest.Doc{
			ID:     fmt.Sprintf("e%03d", i),
			Source: fmt.Sprintf(`{"msg":"event %d","level":"info"}`, i),
		})
	}
	audit := &elastictest.Index{
		Name:    "audit",
		DocType: "entry",
		Docs:    []elastictest.Doc{{ID: "a1", Source: `{"user":"ana","action":"login"}`}},
	}
	cluster := elastictest.New(t, logs, audit)

	cfg := testConfig(cluster.Connection())
	closed := closedConnection(t)
	cfg.Presets["down"] = config.Preset{Host: closed.Host, Port: closed.Port}

	ws := NewWebServer(cfg, session.NewMemoryStore(time.Hour))
	srv := httptest.NewServer(ws.Handler())
	t.Cleanup(srv.Close)
	return ws, srv, cluster
}

// closedConnection returns an endpoint nothing listens on.
func closedConnection(t *testing.T) core.Connection {
	t.Helper()
	s := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(s.URL)
	s.Close()
	port, _ := strconv.Atoi(u.Port())
	return core.Connection{Host: u.Hostname(), Port: port, Scheme: "http"}
}

// browser keeps the session cookie between requests.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return &browser{t: t, base: srv.URL, client: &http.Client{Jar: jar}}
}

func (b *browser) read(resp *http.Response, err error) (*http.Response, string) {
	b.t.Helper()
	if err != nil {
		b.t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatalf("Failed to read body: %v", err)
	}
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	return b.read(b.client.Get(b.base + path))
}

// nav posts to /nav and follows the redirect back to the page.
func (b *browser) nav(form url.Values) (*http.Response, string) {
	b.t.Helper()
	return b.read(b.client.PostForm(b.base+"/nav", form))
}

func expectContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("Expected page to contain %q", w)
		}
	}
}

func TestWebBrowseSelectsFirstIndex(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	resp, body := b.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %q", ct)
	}

	expectContains(t, body,
		"Index: logs-2024.02",
		"Document type: <code>_doc</code>",
		"Found 120 records",
		"Page 1 / 2",
		"Showing rows 1 to 50 of 100",
		`<option value="50" selected>50</option>`,
		"<th>msg</th>",
		"Deleted Documents",
		"1,200",
	)
	// Newest index first in the sidebar.
	if strings.Index(body, ">logs-2024.02</a>") > strings.Index(body, ">audit</a>") {
		t.Errorf("Expected indices in descending order")
	}
}

func TestWebPaginationFlow(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)
	b.get("/")

	steps := []struct {
		form url.Values
		want []string
	}{
		{url.Values{"action": {"next"}}, []string{"Page 2 / 2", "Showing rows 51 to 100 of 100"}},
		{url.Values{"action": {"next"}}, []string{"Page 2 / 2", "Showing rows 51 to 100 of 100"}},
		// A page size change keeps the page number.
		{url.Values{"size": {"20"}}, []string{"Page 2 / 5", "Showing rows 21 to 40 of 100"}},
		{url.Values{"action": {"last"}}, []string{"Page 5 / 5", "Showing rows 81 to 100 of 100"}},
		{url.Values{"action": {"previous"}}, []string{"Page 4 / 5", "Showing rows 61 to 80 of 100"}},
		{url.Values{"action": {"first"}}, []string{"Page 1 / 5", "Showing rows 1 to 20 of 100"}},
	}
	for i, step := range steps {
		resp, body := b.nav(step.form)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("step %d: expected status 200, got %d", i, resp.StatusCode)
		}
		expectContains(t, body, step.want...)
	}
}

func TestWebPageSizeBeyondLastPageIsClamped(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)
	b.get("/")

	b.nav(url.Values{"size": {"20"}})
	b.nav(url.Values{"action": {"last"}})
	_, body := b.nav(url.Values{"size": {"100"}})
	expectContains(t, body, "Page 1 / 1", "Showing rows 1 to 100 of 100")
}

func TestWebNavRejectsInvalidInput(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	for _, form := range []url.Values{
		{"size": {"7"}},
		{"size": {"many"}},
		{"action": {"jump"}},
	} {
		resp, _ := b.nav(form)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%v: expected 400, got %d", form, resp.StatusCode)
		}
	}
}

func TestWebSelectIndex(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	_, body := b.get("/?index=audit")
	expectContains(t, body, "Index: audit", "Document type: <code>entry</code>", "Found 1 records", "<th>user</th>")

	// The selection is remembered.
	_, body = b.get("/")
	expectContains(t, body, "Index: audit")

	// Unknown indices fall back to the first one.
	_, body = b.get("/?index=missing")
	expectContains(t, body, "Index: logs-2024.02")
}

func TestWebSessionsAreIndependent(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	alice := newBrowser(t, srv)
	bob := newBrowser(t, srv)

	alice.get("/")
	alice.nav(url.Values{"action": {"next"}})
	_, body := bob.get("/")
	expectContains(t, body, "Page 1 / 2")
	_, body = alice.get("/")
	expectContains(t, body, "Page 2 / 2")
}

func TestWebConnectionError(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	resp, body := b.get("/?preset=down")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	expectContains(t, body, "Cannot connect to Elasticsearch")
	if strings.Contains(body, "<h2>Indices</h2>") || strings.Contains(body, "<table") {
		t.Errorf("Expected no index list or table on a connection error")
	}
}

func TestWebInvalidPresetFallsBack(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	_, body := b.get("/?preset=nope")
	expectContains(t, body, "Invalid connection")
	_, body = b.get("/")
	expectContains(t, body, "Index: logs-2024.02")
}

func TestWebSearchFaultShowsDiagnostic(t *testing.T) {
	_, srv, cluster := setupTestWebServer(t)
	cluster.Fail(elastictest.OpSearch, http.StatusBadRequest)
	b := newBrowser(t, srv)

	resp, body := b.get("/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	expectContains(t, body, "No documents found or an error occurred.", "<strong>search:</strong>")
	if strings.Contains(body, "<table") {
		t.Errorf("Expected no table for an empty result")
	}
}

func TestWebRowDetail(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	_, body := b.get("/?show_debug=1&row=2")
	expectContains(t, body, "Selected document", `<tr class="selected">`, "event 2", `href="/?row=3&amp;show_debug=1"`)
	// The detail view shows the normalized row, keyed by column name.
	expectContains(t, body, `&#34;Index&#34;: &#34;logs-2024.02&#34;`)

	// Unchecking the box through the form hides the view.
	_, body = b.get("/?detail_form=1")
	if strings.Contains(body, "Selected document") {
		t.Errorf("Expected detail view to be hidden")
	}
}

func TestWebDownloads(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)
	_, page := b.get("/")
	expectContains(t, page, `href="/download/logs-2024.02.json"`, `download="logs-2024.02_data.csv"`)

	resp, body := b.get("/download/logs-2024.02.json")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="logs-2024.02_data.json"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	var docs []map[string]any
	if err := json.Unmarshal([]byte(body), &docs); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	// Exports carry the full result set, not the visible page.
	if len(docs) != 100 || docs[0]["_id"] != "e000" {
		t.Errorf("Unexpected JSON export: %d documents", len(docs))
	}

	resp, body = b.get("/download/logs-2024.02.csv")
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Errorf("Unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(body, "\ufeff")), "\n")
	if len(lines) != 101 || strings.TrimSpace(lines[0]) != "ID,Type,Index,msg,level" {
		t.Errorf("Unexpected CSV export: %d lines, header %q", len(lines), lines[0])
	}

	resp, _ = b.get("/download/logs-2024.02.xml")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown format, got %d", resp.StatusCode)
	}
}

func TestWebDownloadUnreachable(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)
	b.get("/?preset=down")

	resp, _ := b.get("/download/logs-2024.02.json")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", resp.StatusCode)
	}
}

func TestWebStaticAssets(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	resp, body := b.get("/static/style.css")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "text/css" {
		t.Errorf("Unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("Cache-Control") != "public, max-age=3600" {
		t.Errorf("Expected cache headers")
	}
	if !strings.Contains(body, ".sidebar") {
		t.Errorf("Unexpected stylesheet content")
	}

	resp, _ = b.get("/static/missing.js")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}

func TestWebGzip(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/static/style.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Errorf("Expected gzip encoded response")
	}
}

func TestWebAPIAndMetrics(t *testing.T) {
	_, srv, _ := setupTestWebServer(t)
	b := newBrowser(t, srv)

	resp, body := b.get("/api/indices")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"logs-2024.02"`) {
		t.Errorf("Unexpected API answer %d: %s", resp.StatusCode, body)
	}

	resp, body = b.get("/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	expectContains(t, body, "esview_http_requests_total", "esview_elastic_requests_total")
}

func TestWebReload(t *testing.T) {
	ws, srv, cluster := setupTestWebServer(t)
	b := newBrowser(t, srv)

	cfg := testConfig(cluster.Connection())
	cfg.Presets = map[string]config.Preset{
		"renamed": cfg.Presets["test"],
	}
	cfg.DefaultPreset = "renamed"
	ws.Reload(cfg)

	if ws.Config() != cfg {
		t.Fatalf("Expected reloaded config to be in effect")
	}
	_, body := b.get("/")
	expectContains(t, body, `<option value="renamed" selected>renamed</option>`, "Index: logs-2024.02")
}

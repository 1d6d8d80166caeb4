package cmd

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/esview/cmd/web/components"
	"github.com/rubiojr/esview/cmd/web/components/types"
	"github.com/rubiojr/esview/pkg/api"
	"github.com/rubiojr/esview/pkg/config"
	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
	"github.com/rubiojr/esview/pkg/export"
	"github.com/rubiojr/esview/pkg/log"
	"github.com/rubiojr/esview/pkg/metrics"
	"github.com/rubiojr/esview/pkg/pager"
	"github.com/rubiojr/esview/pkg/session"
	"github.com/rubiojr/esview/pkg/version"
	"github.com/rubiojr/esview/pkg/viewer"
	"github.com/urfave/cli/v3"
)

//go:embed web/static/*
var staticFS embed.FS

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the data browser with both HTML interface and JSON API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default: web.port from the config)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (default: web.host from the config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.Int("port"))
		},
	}
}

// runtime is the configuration in effect and the viewer built from it.
type runtime struct {
	cfg *config.Config
	svc *viewer.Service
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	current   atomic.Pointer[runtime]
	sessions  *session.Manager
	apiServer *api.Server
	logger    *log.Logger
}

// NewWebServer builds a server for cfg. Sessions get the default page size
// of whatever configuration is in effect when they are created.
func NewWebServer(cfg *config.Config, store session.Store) *WebServer {
	s := &WebServer{logger: log.ForService("web")}
	s.current.Store(&runtime{cfg: cfg, svc: newViewer(cfg)})
	s.sessions = session.NewManager(store, cfg.Session.TTL.Duration, func() int {
		return s.Config().DefaultPageSize
	})
	s.apiServer = api.NewServer(s)
	return s
}

// Config implements api.Env.
func (s *WebServer) Config() *config.Config {
	return s.current.Load().cfg
}

// Viewer implements api.Env.
func (s *WebServer) Viewer() *viewer.Service {
	return s.current.Load().svc
}

// Reload swaps in a new configuration. Listener and session settings are
// only read at startup.
func (s *WebServer) Reload(cfg *config.Config) {
	old := s.Config()
	s.current.Store(&runtime{cfg: cfg, svc: newViewer(cfg)})

	if cfg.Web != old.Web || cfg.Session != old.Session {
		s.logger.Warnf("web and session settings changed; restart to apply them")
	}
	s.logger.Infof("Configuration reloaded (%d presets)", len(cfg.Presets))
}

// Handler returns the complete HTTP handler of the server.
func (s *WebServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware())

	// Web UI routes
	r.Get("/", s.handleBrowse)
	r.Post("/nav", s.handleNav)
	r.Get("/download/{file}", s.handleDownload)

	// API routes
	s.apiServer.RegisterRoutes(r)
	r.Handle("/metrics", metrics.Handler())

	// Static assets
	r.Get("/static/*", s.handleStatic)

	if s.Config().Web.DisableGzip {
		return r
	}
	return gzhttp.GzipHandler(r)
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, configPath, host string, port int) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if host == "" {
		host = cfg.Web.Host
	}
	if port <= 0 {
		port = cfg.Web.Port
	}

	store, err := session.NewStore(ctx, cfg.Session)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}

	webServer := NewWebServer(cfg, store)
	logger := webServer.logger
	defer func() {
		if err := webServer.sessions.Close(); err != nil {
			logger.Warnf("failed to close session store: %v", err)
		}
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		if err := config.Watch(watchCtx, configPath, webServer.Reload); err != nil {
			logger.Warnf("configuration reload disabled: %v", err)
		}
	}()
	go webServer.sessions.Sweep(watchCtx, time.Minute)

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	server := &http.Server{
		Addr:              addr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting web server on http://%s", addr)
		logger.Infof("Available endpoints:")
		logger.Infof("  Web UI:")
		logger.Infof("    GET  / - Browse indices of the selected cluster")
		logger.Infof("    POST /nav - Pagination and page size")
		logger.Infof("    GET  /download/{index}.json|.csv - Export an index")
		logger.Infof("  API:")
		logger.Infof("    GET /api/indices - List indices")
		logger.Infof("    GET /api/indices/{index}/stats - Index statistics")
		logger.Infof("    GET /api/indices/{index}/documents - One page of documents")
		logger.Infof("    GET /health - Health check")
		logger.Infof("    GET /metrics - Prometheus metrics")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-sigCh:
	case <-ctx.Done():
	}

	logger.Infof("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// Web UI Handlers

// handleBrowse renders the viewer page. Query parameters update the session
// before rendering: preset, host, port and scheme select the cluster, index
// selects the index, show_debug toggles the row detail view and row picks
// the row to detail.
func (s *WebServer) handleBrowse(w http.ResponseWriter, r *http.Request) {
	cfg := s.Config()
	sess := s.sessions.Load(r)
	q := r.URL.Query()

	if q.Has("preset") || q.Has("host") {
		sess.SetConnection(q.Get("preset"), strings.TrimSpace(q.Get("host")), q.Get("port"), q.Get("scheme"))
	}
	if q.Has("index") {
		sess.Index = q.Get("index")
	}
	if q.Has("detail_form") || q.Has("show_debug") {
		sess.ShowDetail = q.Get("show_debug") != ""
	}
	selectedRow := -1
	if v := q.Get("row"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			selectedRow = n
		}
	}

	data := s.pageData(cfg, sess)
	// The cookie must be set before the page body is written.
	show := func() {
		s.saveSession(w, r, sess)
		s.render(w, r, data)
	}
	fail := func(err error) {
		s.saveSession(w, r, sess)
		s.renderFailure(w, r, data, err)
	}

	conn, err := sess.Connection(cfg)
	if err != nil {
		data.Error = fmt.Sprintf("Invalid connection: %v", err)
		sess.SetConnection("", "", "", "")
		show()
		return
	}
	data.Connection = conn.URL()

	indices, diags, err := s.Viewer().Indices(r.Context(), conn)
	if err != nil {
		fail(err)
		return
	}
	data.Indices = indices
	data.Diagnostics = convertDiagnostics(diags)

	if !slices.Contains(indices, sess.Index) {
		sess.Index = ""
		if len(indices) > 0 {
			sess.Index = indices[0]
		}
	}
	if sess.Index == "" {
		show()
		return
	}

	view, err := s.Viewer().Browse(r.Context(), conn, sess.Index, sess.Pager, true)
	if err != nil {
		fail(err)
		return
	}
	sess.Pager = view.State
	sess.Rows = view.Rows()

	fillView(&data, view, selectedRow)
	show()
}

// handleNav applies a pagination action or a page size change to the
// session, then redirects to the viewer page.
func (s *WebServer) handleNav(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	cfg := s.Config()
	sess := s.sessions.Load(r)

	if v := r.PostForm.Get("action"); v != "" {
		action, err := pager.ParseAction(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess.Pager = sess.Pager.Apply(action, sess.Rows)
	}
	if v := r.PostForm.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !pager.ValidPageSize(n, cfg.PageSizes) {
			http.Error(w, fmt.Sprintf("Invalid page size %q", v), http.StatusBadRequest)
			return
		}
		sess.Pager = sess.Pager.SetPageSize(n)
	}

	s.saveSession(w, r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDownload exports the complete result set of an index for the
// session's cluster. The path is /download/<index>.<format>.
func (s *WebServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		http.NotFound(w, r)
		return
	}
	index := file[:dot]
	format, err := export.ParseFormat(file[dot+1:])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	sess := s.sessions.Load(r)
	conn, err := sess.Connection(s.Config())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Viewer().Fetch(r.Context(), conn, index)
	if err != nil {
		if elastic.IsConnectivity(err) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, d := range res.Diagnostics {
		s.logger.Warnf("export of %s: %s", index, d.Message)
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(index)))
	if err := export.Write(w, format, res.Set); err != nil {
		s.logger.Errorf("writing %s export of %s: %v", format, index, err)
	}
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// Remove /static/ prefix and add web/static/ prefix for embedded filesystem
	filePath := "web/static/" + strings.TrimPrefix(path, "/static/")

	content, err := staticFS.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".ico"):
		w.Header().Set("Content-Type", "image/x-icon")
	case strings.HasSuffix(path, ".png"):
		w.Header().Set("Content-Type", "image/png")
	}

	// Set cache headers for static assets
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		s.logger.Errorf("Error writing static content: %v", err)
	}
}

// Helper methods

func (s *WebServer) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.sessions.Save(w, r, sess); err != nil {
		s.logger.Errorf("saving session %s: %v", sess.ID, err)
	}
}

func (s *WebServer) render(w http.ResponseWriter, r *http.Request, data types.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.Browse(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// renderFailure renders the connection error page for connectivity
// failures. Other errors are unexpected and answer 500.
func (s *WebServer) renderFailure(w http.ResponseWriter, r *http.Request, data types.PageData, err error) {
	if !elastic.IsConnectivity(err) {
		s.logger.Errorf("browsing %s: %v", data.Connection, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Warnf("%v", err)
	data.ConnectionError = err.Error()
	s.render(w, r, data)
}

// pageData fills the parts of the page that do not need the cluster.
func (s *WebServer) pageData(cfg *config.Config, sess *session.Session) types.PageData {
	data := types.PageData{
		Title:       "Elasticsearch Data Browser",
		Version:     version.Version,
		Presets:     cfg.PresetNames(),
		Preset:      sess.Preset,
		Host:        sess.Host,
		Port:        sess.Port,
		Scheme:      sess.Scheme,
		Schemes:     []string{"http", "https"},
		PageSize:    sess.Pager.PageSize,
		PageSizes:   cfg.PageSizes,
		ShowDetail:  sess.ShowDetail,
		SelectedRow: -1,
	}
	if data.Preset == "" && data.Host == "" {
		data.Preset = cfg.DefaultPreset
	}
	if data.Scheme == "" {
		data.Scheme = core.DefaultScheme
	}
	return data
}

// fillView copies one browsed page into data.
func fillView(data *types.PageData, view *viewer.View, selectedRow int) {
	rows := view.Rows()
	data.Index = view.Index
	data.DocType = view.DocType
	data.Diagnostics = append(data.Diagnostics, convertDiagnostics(view.Diagnostics)...)
	data.Found = view.Set.Total
	data.Columns = view.Page.Columns
	data.RowCount = rows
	data.CurrentPage = view.State.Page
	data.TotalPages = view.TotalPages
	data.PageSize = view.State.PageSize
	data.CanPrevious = view.State.CanPrevious()
	data.CanNext = view.State.CanNext(rows)
	data.End = view.End
	if rows > 0 {
		data.Start = view.Start + 1
	}

	for i := 0; i < view.Page.Len(); i++ {
		n := view.Start + i
		data.Rows = append(data.Rows, types.Row{
			Number:   n,
			Cells:    view.Page.Strings(i),
			Selected: n == selectedRow,
		})
	}

	if data.ShowDetail && selectedRow >= 0 && selectedRow < rows {
		if b, err := json.MarshalIndent(view.Table.Record(selectedRow), "", "  "); err == nil {
			data.SelectedRow = selectedRow
			data.Detail = string(b)
		}
	}

	if rows > 0 {
		for _, f := range export.Formats {
			data.Downloads = append(data.Downloads, types.Download{
				Label:    strings.ToUpper(string(f)),
				URL:      "/download/" + url.PathEscape(view.Index+"."+string(f)),
				Filename: f.Filename(view.Index),
			})
		}
	}

	for _, f := range view.Stats.Fields() {
		data.Stats = append(data.Stats, types.Stat{
			Label: statLabel(f.Label),
			Value: statValue(f.Value),
		})
	}
}

func convertDiagnostics(diags []*elastic.Diagnostic) []types.Diagnostic {
	out := make([]types.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, types.Diagnostic{
			Op:      d.Op,
			Message: d.Message,
			Trace:   d.Trace,
		})
	}
	return out
}

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
	"github.com/rubiojr/esview/pkg/pager"
	"github.com/rubiojr/esview/pkg/version"
)

// connection resolves the cluster selected by the preset, host, port and
// scheme query parameters.
func (s *Server) connection(w http.ResponseWriter, r *http.Request) (core.Connection, bool) {
	q := r.URL.Query()
	conn, err := s.env.Config().ResolveConnection(q.Get("preset"), q.Get("host"), q.Get("port"), q.Get("scheme"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid connection", err.Error())
		return core.Connection{}, false
	}
	return conn, true
}

// unavailable reports a connectivity failure. Anything else is a bug in the
// viewer and answers 500.
func (s *Server) unavailable(w http.ResponseWriter, err error) {
	if elastic.IsConnectivity(err) {
		s.writeError(w, http.StatusBadGateway, "Cluster unreachable", err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

func (s *Server) HandleListIndices(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.connection(w, r)
	if !ok {
		return
	}

	names, diags, err := s.env.Viewer().Indices(r.Context(), conn)
	if err != nil {
		s.unavailable(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ListIndicesResponse{
		Connection:  conn.URL(),
		Indices:     names,
		Count:       len(names),
		Diagnostics: diags,
	})
}

func (s *Server) HandleIndexStats(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	conn, ok := s.connection(w, r)
	if !ok {
		return
	}

	stats, diags, err := s.env.Viewer().Stats(r.Context(), conn, index)
	if err != nil {
		s.unavailable(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, IndexStatsResponse{
		Index:       index,
		Stats:       stats,
		Diagnostics: diags,
	})
}

// HandleDocuments returns one page of documents. The API is stateless: the
// page and page size come from the query string on every call.
func (s *Server) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	cfg := s.env.Config()

	state := pager.New(cfg.DefaultPageSize)
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !pager.ValidPageSize(n, cfg.PageSizes) {
			s.writeError(w, http.StatusBadRequest, "Invalid page size", fmt.Sprintf("size must be one of %v", cfg.PageSizes))
			return
		}
		state = state.SetPageSize(n)
	}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "Invalid page", "page must be a positive integer")
			return
		}
		state.Page = n
	}

	conn, ok := s.connection(w, r)
	if !ok {
		return
	}

	view, err := s.env.Viewer().Browse(r.Context(), conn, index, state, false)
	if err != nil {
		s.unavailable(w, err)
		return
	}

	docs := view.Set.Documents[view.Start:view.End]
	records := make([]map[string]any, 0, view.Page.Len())
	for i := 0; i < view.Page.Len(); i++ {
		records = append(records, view.Page.Record(i))
	}
	s.writeJSON(w, http.StatusOK, DocumentsResponse{
		Index:       index,
		DocType:     view.DocType,
		Total:       view.Set.Total,
		Rows:        view.Rows(),
		Page:        view.State.Page,
		PageSize:    view.State.PageSize,
		TotalPages:  view.TotalPages,
		Start:       view.Start,
		End:         view.End,
		HasMore:     view.State.CanNext(view.Rows()),
		MaxResults:  s.env.Viewer().MaxResults(),
		Columns:     view.Page.Columns,
		Documents:   docs,
		Records:     records,
		Mapping:     view.Schema,
		Diagnostics: view.Diagnostics,
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}

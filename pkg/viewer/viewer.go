// Package viewer ties the Elasticsearch adapter, the result normalizer and
// the pagination state machine together. Both the web UI and the CLI go
// through a Service; it holds no per-user state.
package viewer

import (
	"context"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
	"github.com/rubiojr/esview/pkg/log"
	"github.com/rubiojr/esview/pkg/pager"
	"github.com/rubiojr/esview/pkg/table"
)

// Backend is the subset of *elastic.Client the viewer needs.
type Backend interface {
	ListIndices(ctx context.Context) ([]string, *elastic.Diagnostic)
	Mapping(ctx context.Context, index string) (string, map[string]any, *elastic.Diagnostic)
	Stats(ctx context.Context, index string) (*core.IndexStats, *elastic.Diagnostic)
	SearchType(ctx context.Context, index, docType string, maxResults int) (*core.ResultSet, *elastic.Diagnostic)
}

// Dialer returns a ready backend for conn. Failures must be
// *elastic.ConnectivityError.
type Dialer func(ctx context.Context, conn core.Connection) (Backend, error)

type Service struct {
	dial       Dialer
	maxResults int
	logger     *log.Logger
}

func NewService(dial Dialer, maxResults int) *Service {
	if maxResults <= 0 {
		maxResults = elastic.DefaultMaxResults
	}
	return &Service{
		dial:       dial,
		maxResults: maxResults,
		logger:     log.ForService("viewer"),
	}
}

// MaxResults returns the per-index search cap.
func (s *Service) MaxResults() int {
	return s.maxResults
}

// Indices lists the indices of the cluster behind conn. The error is always
// a connectivity error; query faults come back as diagnostics.
func (s *Service) Indices(ctx context.Context, conn core.Connection) ([]string, []*elastic.Diagnostic, error) {
	b, err := s.dial(ctx, conn)
	if err != nil {
		return nil, nil, err
	}
	names, diag := b.ListIndices(ctx)
	return names, collect(diag), nil
}

// Stats fetches the counters of one index.
func (s *Service) Stats(ctx context.Context, conn core.Connection, index string) (*core.IndexStats, []*elastic.Diagnostic, error) {
	b, err := s.dial(ctx, conn)
	if err != nil {
		return nil, nil, err
	}
	stats, diag := b.Stats(ctx, index)
	return stats, collect(diag), nil
}

// Result is one fetched and normalized index.
type Result struct {
	Index       string
	DocType     string
	Schema      map[string]any
	Set         *core.ResultSet
	Table       *table.Table
	Diagnostics []*elastic.Diagnostic
}

// Fetch resolves the document type of index, runs the bounded search and
// normalizes the hits. The whole result set is returned regardless of any
// pagination, which is what exports need.
func (s *Service) Fetch(ctx context.Context, conn core.Connection, index string) (*Result, error) {
	b, err := s.dial(ctx, conn)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, b, index), nil
}

func (s *Service) fetch(ctx context.Context, b Backend, index string) *Result {
	docType, schema, mdiag := b.Mapping(ctx, index)
	rs, sdiag := b.SearchType(ctx, index, docType, s.maxResults)
	if rs == nil {
		rs = core.Empty(index)
		rs.DocType = docType
	}
	s.logger.Debugf("fetched %d of %d documents from %s (type %s)", rs.Len(), rs.Total, index, docType)
	return &Result{
		Index:       index,
		DocType:     docType,
		Schema:      schema,
		Set:         rs,
		Table:       table.Normalize(rs),
		Diagnostics: collect(mdiag, sdiag),
	}
}

// View is everything one page of the table view shows.
type View struct {
	*Result

	// State is the pagination state after clamping to the fetched rows.
	State      pager.State
	TotalPages int
	// Start and End delimit the visible rows, End exclusive.
	Start, End int
	Page       *table.Table
	Stats      *core.IndexStats
}

// Rows returns the number of fetched rows.
func (v *View) Rows() int {
	return v.Table.Len()
}

// Browse fetches index and cuts out the page selected by state. Statistics
// are fetched alongside when withStats is set. The returned State is state
// clamped to the fetched rows and is what the caller should persist.
func (s *Service) Browse(ctx context.Context, conn core.Connection, index string, state pager.State, withStats bool) (*View, error) {
	b, err := s.dial(ctx, conn)
	if err != nil {
		return nil, err
	}

	res := s.fetch(ctx, b, index)
	rows := res.Table.Len()
	state = state.Clamp(rows)
	start, end := state.Slice(rows)

	v := &View{
		Result:     res,
		State:      state,
		TotalPages: state.TotalPages(rows),
		Start:      start,
		End:        end,
		Page:       res.Table.Slice(start, end),
	}

	if withStats {
		stats, diag := b.Stats(ctx, index)
		v.Stats = stats
		v.Diagnostics = append(v.Diagnostics, collect(diag)...)
	}
	return v, nil
}

func collect(diags ...*elastic.Diagnostic) []*elastic.Diagnostic {
	var out []*elastic.Diagnostic
	for _, d := range diags {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

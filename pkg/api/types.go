package api

import (
	"time"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
)

type ListIndicesResponse struct {
	Connection  string                `json:"connection"`
	Indices     []string              `json:"indices"`
	Count       int                   `json:"count"`
	Diagnostics []*elastic.Diagnostic `json:"diagnostics,omitempty"`
}

type IndexStatsResponse struct {
	Index       string                `json:"index"`
	Stats       *core.IndexStats      `json:"stats"`
	Diagnostics []*elastic.Diagnostic `json:"diagnostics,omitempty"`
}

type DocumentsResponse struct {
	Index      string           `json:"index"`
	DocType    string           `json:"doc_type"`
	Total      int64            `json:"total"`
	Rows       int              `json:"rows"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	Start      int              `json:"start"`
	End        int              `json:"end"`
	HasMore    bool             `json:"has_more"`
	MaxResults int              `json:"max_results"`
	Columns    []string         `json:"columns"`
	Documents  []*core.Document `json:"documents"`
	// Records are the normalized table rows of the page, keyed by column.
	Records     []map[string]any      `json:"records"`
	Mapping     map[string]any        `json:"mapping,omitempty"`
	Diagnostics []*elastic.Diagnostic `json:"diagnostics,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

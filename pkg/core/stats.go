package core

// IndexStats is a point-in-time snapshot of the primary counters of an
// index, fetched on demand and never cached.
type IndexStats struct {
	Index          string `json:"index"`
	DocsCount      int64  `json:"docs_count"`
	DocsDeleted    int64  `json:"docs_deleted"`
	StoreSizeBytes int64  `json:"store_size_bytes"`
	IndexTotal     int64  `json:"index_total"`
	QueryTotal     int64  `json:"query_total"`
}

// StatField is one labelled counter of an IndexStats snapshot.
type StatField struct {
	Key   string
	Label string
	Value int64
}

// Fields returns the counters in display order.
func (s *IndexStats) Fields() []StatField {
	if s == nil {
		return nil
	}
	return []StatField{
		{Key: "docs_count", Label: "documents", Value: s.DocsCount},
		{Key: "docs_deleted", Label: "deleted documents", Value: s.DocsDeleted},
		{Key: "store_size_bytes", Label: "store size (bytes)", Value: s.StoreSizeBytes},
		{Key: "index_total", Label: "index operations", Value: s.IndexTotal},
		{Key: "query_total", Label: "search operations", Value: s.QueryTotal},
	}
}

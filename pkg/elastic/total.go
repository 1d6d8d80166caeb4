package elastic

import (
	"bytes"
	"encoding/json"
)

// TotalKind tells which shape the hits.total member of a search response had.
type TotalKind int

const (
	// TotalMissing means the member was absent or null.
	TotalMissing TotalKind = iota
	// TotalLegacy is the bare integer sent by 6.x clusters.
	TotalLegacy
	// TotalObject is the {"value": n, "relation": "eq"} object sent by 7.x and later.
	TotalObject
	// TotalMalformed is anything else.
	TotalMalformed
)

func (k TotalKind) String() string {
	switch k {
	case TotalLegacy:
		return "legacy"
	case TotalObject:
		return "object"
	case TotalMalformed:
		return "malformed"
	default:
		return "missing"
	}
}

// TotalHits is the decoded hits.total member. Decoding never fails: shapes
// that are neither an integer nor a value object are kept as TotalMalformed
// and count as zero.
type TotalHits struct {
	Kind     TotalKind
	Value    int64
	Relation string
	Raw      json.RawMessage
}

type totalObject struct {
	Value    *int64 `json:"value"`
	Relation string `json:"relation"`
}

func (t *TotalHits) UnmarshalJSON(data []byte) error {
	*t = TotalHits{Raw: append(json.RawMessage(nil), data...)}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		t.Kind = TotalMissing
		return nil
	}

	switch trimmed[0] {
	case '{':
		var obj totalObject
		if err := json.Unmarshal(trimmed, &obj); err != nil || obj.Value == nil || *obj.Value < 0 {
			t.Kind = TotalMalformed
			return nil
		}
		t.Kind = TotalObject
		t.Value = *obj.Value
		t.Relation = obj.Relation
	default:
		var n int64
		if err := json.Unmarshal(trimmed, &n); err != nil || n < 0 {
			t.Kind = TotalMalformed
			return nil
		}
		t.Kind = TotalLegacy
		t.Value = n
	}
	return nil
}

// Count returns the normalized hit count.
func (t TotalHits) Count() int64 {
	switch t.Kind {
	case TotalLegacy, TotalObject:
		return t.Value
	default:
		return 0
	}
}

// Valid reports whether the total had a recognised shape.
func (t TotalHits) Valid() bool {
	return t.Kind == TotalLegacy || t.Kind == TotalObject
}

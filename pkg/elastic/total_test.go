package elastic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalHitsShapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  TotalKind
		count int64
	}{
		{"legacy integer", `{"total": 42}`, TotalLegacy, 42},
		{"object", `{"total": {"value": 42, "relation": "eq"}}`, TotalObject, 42},
		{"lower bound", `{"total": {"value": 10000, "relation": "gte"}}`, TotalObject, 10000},
		{"missing", `{}`, TotalMissing, 0},
		{"null", `{"total": null}`, TotalMissing, 0},
		{"string", `{"total": "42"}`, TotalMalformed, 0},
		{"object without value", `{"total": {"relation": "eq"}}`, TotalMalformed, 0},
		{"negative", `{"total": -1}`, TotalMalformed, 0},
		{"fraction", `{"total": 1.5}`, TotalMalformed, 0},
		{"array", `{"total": [1]}`, TotalMalformed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Total TotalHits `json:"total"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.input), &v))
			assert.Equal(t, tt.kind, v.Total.Kind)
			assert.Equal(t, tt.count, v.Total.Count())
			assert.Equal(t, tt.kind == TotalLegacy || tt.kind == TotalObject, v.Total.Valid())
		})
	}
}

func TestTotalHitsRelation(t *testing.T) {
	var total TotalHits
	require.NoError(t, json.Unmarshal([]byte(`{"value": 3, "relation": "gte"}`), &total))
	assert.Equal(t, "gte", total.Relation)
	assert.Equal(t, "object", total.Kind.String())
}

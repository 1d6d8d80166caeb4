// Package table flattens search results into a rectangular table suitable for
// HTML rendering and CSV export.
package table

import (
	"github.com/rubiojr/esview/pkg/core"
)

// Display names of the metadata columns. The raw hit keys (_id, _type,
// _index) start with an underscore, which the UI layer reserves, so the
// table renames them.
const (
	ColumnID    = "ID"
	ColumnType  = "Type"
	ColumnIndex = "Index"
)

// MetaColumns lists the metadata columns in the order they lead every table.
var MetaColumns = []string{ColumnID, ColumnType, ColumnIndex}

// sourcePrefix is prepended to a source field whose name collides with one of
// the renamed metadata columns.
const sourcePrefix = "source."

// Cell is one table value. Absent marks a field the document did not carry,
// which is different from a field explicitly set to null.
type Cell struct {
	Value   any
	Present bool
}

// String renders the cell for display and CSV. Absent cells render empty.
func (c Cell) String() string {
	if !c.Present {
		return ""
	}
	return core.FormatValue(c.Value)
}

// Table is a normalized result set: every row has exactly one cell per
// column.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Normalize converts a result set into a table. Columns are the three
// metadata columns followed by every distinct source field in first-seen
// order across the documents. A nil result set yields a table with only the
// metadata columns and no rows.
func Normalize(rs *core.ResultSet) *Table {
	t := &Table{
		Columns: append([]string(nil), MetaColumns...),
		Rows:    make([][]Cell, 0, rs.Len()),
	}
	if rs == nil {
		return t
	}

	// Source field name -> column name, in first-seen order.
	var fields []string
	columnFor := make(map[string]string)
	for _, doc := range rs.Documents {
		for _, key := range doc.Keys() {
			if core.IsMetaKey(key) {
				continue
			}
			if _, seen := columnFor[key]; seen {
				continue
			}
			columnFor[key] = columnName(key)
			fields = append(fields, key)
		}
	}
	for _, key := range fields {
		t.Columns = append(t.Columns, columnFor[key])
	}

	for _, doc := range rs.Documents {
		row := make([]Cell, 0, len(t.Columns))
		row = append(row,
			Cell{Value: doc.ID, Present: true},
			Cell{Value: doc.Type, Present: true},
			Cell{Value: doc.Index, Present: true},
		)
		for _, key := range fields {
			v, ok := doc.Get(key)
			row = append(row, Cell{Value: v, Present: ok})
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

func columnName(field string) string {
	for _, meta := range MetaColumns {
		if field == meta {
			return sourcePrefix + field
		}
	}
	return field
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Slice returns a table sharing the columns of t and holding rows
// [start, end). Out-of-range bounds are clamped.
func (t *Table) Slice(start, end int) *Table {
	n := t.Len()
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return &Table{Columns: t.Columns, Rows: t.Rows[start:end]}
}

// Record returns row i as a column -> value map holding only the present
// cells. It is used by the row detail view.
func (t *Table) Record(i int) map[string]any {
	if i < 0 || i >= t.Len() {
		return nil
	}
	out := make(map[string]any, len(t.Columns))
	for j, cell := range t.Rows[i] {
		if cell.Present {
			out[t.Columns[j]] = cell.Value
		}
	}
	return out
}

// Strings returns row i rendered as strings, one per column.
func (t *Table) Strings(i int) []string {
	if i < 0 || i >= t.Len() {
		return nil
	}
	out := make([]string, len(t.Rows[i]))
	for j, cell := range t.Rows[i] {
		out[j] = cell.String()
	}
	return out
}

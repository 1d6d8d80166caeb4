// Package export serializes result sets to downloadable files.
//
// JSON exports carry the raw documents (original field names, metadata keys
// included) while CSV exports carry the normalized table. Both always cover
// the complete result set; pagination only affects what the UI renders.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/table"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format identifies an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Formats lists the supported formats in UI order.
var Formats = []Format{FormatJSON, FormatCSV}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Filename returns the download name for an index export, e.g.
// logs_data.json.
func (f Format) Filename(index string) string {
	return index + "_data." + string(f)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Write serializes rs in format f.
func Write(w io.Writer, f Format, rs *core.ResultSet) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, rs)
	case FormatCSV:
		return WriteCSV(w, table.Normalize(rs))
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// WriteJSON writes the raw documents as an indented JSON array. Non-ASCII
// text and HTML characters are written as is.
func WriteJSON(w io.Writer, rs *core.ResultSet) error {
	docs := []*core.Document{}
	if rs != nil && rs.Documents != nil {
		docs = rs.Documents
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encoding json export: %w", err)
	}
	return nil
}

// WriteCSV writes a header row and one row per table row, UTF-8 encoded with
// a leading byte-order mark so spreadsheet tools detect the encoding.
func WriteCSV(w io.Writer, t *table.Table) error {
	if t == nil {
		t = table.Normalize(nil)
	}
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bom)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i := range t.Rows {
		if err := cw.Write(t.Strings(i)); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	if err := bom.Close(); err != nil {
		return fmt.Errorf("closing csv encoder: %w", err)
	}
	return nil
}

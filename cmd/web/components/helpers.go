package components

import (
	"net/url"
	"strconv"

	"github.com/rubiojr/esview/pkg/core"
)

// cellWidth is the number of characters a table cell shows before it is
// truncated. The full value stays available in the row detail view.
const cellWidth = 80

// CellText renders a table cell for display.
func CellText(s string) string {
	return core.Truncate(s, cellWidth)
}

// RowURL links to the detail view of one row.
func RowURL(row int) string {
	v := url.Values{}
	v.Set("show_debug", "1")
	v.Set("row", strconv.Itoa(row))
	return "/?" + v.Encode()
}

// IndexURL selects an index.
func IndexURL(index string) string {
	v := url.Values{}
	v.Set("index", index)
	return "/?" + v.Encode()
}

// FooterText is the page footer, e.g. "esview v0.4.0".
func FooterText(version string) string {
	if version == "" {
		return "esview"
	}
	return "esview v" + version
}

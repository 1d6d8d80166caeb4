package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FormatValue renders a document field value as a single line of text.
//
// Strings are returned verbatim, numbers keep the representation they had in
// the cluster response, nil becomes an empty string and objects or arrays are
// rendered as compact JSON with non-ASCII and HTML characters left unescaped.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		var buf bytes.Buffer
		if err := encodeCompact(&buf, v); err != nil {
			return fmt.Sprintf("%v", v)
		}
		return buf.String()
	}
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if max <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// FormatFields formats a document into an indented, human readable listing,
// metadata first, long values truncated to 100 characters.
func FormatFields(doc *Document) string {
	if doc == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", MetaID, doc.ID)
	fmt.Fprintf(&sb, "%s: %s\n", MetaType, doc.Type)
	fmt.Fprintf(&sb, "%s: %s\n", MetaIndex, doc.Index)
	for _, key := range doc.keys {
		if IsMetaKey(key) {
			continue
		}
		fmt.Fprintf(&sb, "  %s: %s\n", key, Truncate(FormatValue(doc.fields[key]), 100))
	}
	return sb.String()
}

package elastic

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rubiojr/esview/pkg/core"
)

// ConnectivityError is returned when the cluster cannot be reached or does
// not answer the ping. It is fatal for the page that triggered it.
type ConnectivityError struct {
	Conn core.Connection
	Err  error
}

func (e *ConnectivityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot connect to Elasticsearch at %s", e.Conn.URL())
	}
	return fmt.Sprintf("cannot connect to Elasticsearch at %s: %v", e.Conn.URL(), e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// QueryError is an Elasticsearch error response to one request.
type QueryError struct {
	Op     string
	Index  string
	Status int
	Type   string
	Reason string
}

func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Index != "" {
		b.WriteString(" ")
		b.WriteString(e.Index)
	}
	fmt.Fprintf(&b, ": status %d", e.Status)
	if e.Type != "" {
		b.WriteString(" ")
		b.WriteString(e.Type)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// Diagnostic describes a recovered fault. Operations that report one still
// return a usable empty default.
type Diagnostic struct {
	Op      string `json:"op"`
	Index   string `json:"index,omitempty"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
	Err     error  `json:"-"`
}

func newDiagnostic(op, index string, err error) *Diagnostic {
	return &Diagnostic{
		Op:      op,
		Index:   index,
		Message: err.Error(),
		Trace:   fmt.Sprintf("%+v", err),
		Err:     err,
	}
}

func (d *Diagnostic) String() string {
	if d == nil {
		return ""
	}
	return d.Op + ": " + d.Message
}

// errorBody is the error envelope Elasticsearch sends with non-2xx answers.
// The error member is an object on modern clusters and a bare string on
// some older ones.
type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func parseQueryError(op, index string, status int, body io.Reader) *QueryError {
	qe := &QueryError{Op: op, Index: index, Status: status}

	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return qe
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil || len(eb.Error) == 0 {
		qe.Reason = strings.TrimSpace(string(data))
		return qe
	}

	var cause errorCause
	if err := json.Unmarshal(eb.Error, &cause); err == nil {
		qe.Type = cause.Type
		qe.Reason = cause.Reason
		return qe
	}

	var msg string
	if err := json.Unmarshal(eb.Error, &msg); err == nil {
		qe.Reason = msg
	}
	return qe
}

package core

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Default connection values used when a preset or a free entry leaves a
// field empty.
const (
	DefaultScheme = "http"
	DefaultPort   = 9200
)

// Connection describes one Elasticsearch endpoint.
//
// A Connection is a value: it is built once per browsing session (from a
// configured preset or from free entry) and never mutated afterwards. Two
// sessions pointing at the same endpoint produce equal Connections, which
// lets callers use URL() as a cache key.
type Connection struct {
	Host   string `json:"host" toml:"host"`
	Port   int    `json:"port" toml:"port"`
	Scheme string `json:"scheme" toml:"scheme"`
}

// WithDefaults returns a copy of c with an empty scheme or port replaced by
// DefaultScheme and DefaultPort.
func (c Connection) WithDefaults() Connection {
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	c.Host = strings.TrimSpace(c.Host)
	c.Scheme = strings.ToLower(strings.TrimSpace(c.Scheme))
	return c
}

// Validate reports whether the connection can be dialed.
func (c Connection) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if strings.ContainsAny(c.Host, "/ ") {
		return fmt.Errorf("invalid host %q", c.Host)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	switch c.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("scheme must be http or https, got %q", c.Scheme)
	}
	return nil
}

// URL returns the base URL of the endpoint, e.g. http://localhost:9200.
func (c Connection) URL() string {
	c = c.WithDefaults()
	return c.Scheme + "://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Connection) String() string {
	return c.URL()
}

// IsZero reports whether no endpoint has been selected.
func (c Connection) IsZero() bool {
	return c.Host == ""
}

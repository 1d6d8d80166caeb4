// Package elastic talks to an Elasticsearch cluster on behalf of the viewer.
//
// Connect is the only call that returns an error: every other operation
// recovers from faults by returning an empty default together with a
// Diagnostic describing what went wrong, so a single failing request never
// takes the whole page down.
package elastic

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/log"
	"github.com/rubiojr/esview/pkg/metrics"
)

// Operation names used in diagnostics and metrics.
const (
	OpPing     = "ping"
	OpIndices  = "list_indices"
	OpMapping  = "get_mapping"
	OpStats    = "index_stats"
	OpSearch   = "search"
	OpDocument = "decode_hit"
)

type Options struct {
	// Timeout bounds each attempt of a request.
	Timeout time.Duration
	// MaxRetries is the number of retries after a failed attempt. Timeouts
	// and 502/503/504 answers are retried.
	MaxRetries int
	// Transport overrides the HTTP transport. Timeout is ignored when set.
	Transport http.RoundTripper
}

func DefaultOptions() Options {
	return Options{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

type Client struct {
	es     *elasticsearch.Client
	conn   core.Connection
	logger *log.Logger
}

// New builds a client without contacting the cluster.
func New(conn core.Connection, opts Options) (*Client, error) {
	conn = conn.WithDefaults()
	if err := conn.Validate(); err != nil {
		return nil, err
	}

	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ResponseHeaderTimeout: opts.Timeout,
			TLSHandshakeTimeout:   10 * time.Second,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
		}
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:            []string{conn.URL()},
		Transport:            transport,
		MaxRetries:           opts.MaxRetries,
		DisableRetry:         opts.MaxRetries == 0,
		EnableRetryOnTimeout: true,
		RetryOnStatus:        []int{502, 503, 504},
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating elasticsearch client")
	}

	return &Client{
		es:     es,
		conn:   conn,
		logger: log.ForService("elastic"),
	}, nil
}

// Connect builds a client and pings the cluster. Any failure is reported as
// a *ConnectivityError.
func Connect(ctx context.Context, conn core.Connection, opts Options) (*Client, error) {
	c, err := New(conn, opts)
	if err != nil {
		return nil, &ConnectivityError{Conn: conn, Err: err}
	}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	c.logger.Infof("connected to %s", c.conn.URL())
	return c, nil
}

// Connection returns the endpoint the client talks to.
func (c *Client) Connection() core.Connection {
	return c.conn
}

// Ping checks that the cluster answers.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err == nil {
		defer res.Body.Close()
		if res.IsError() {
			err = errors.Errorf("ping answered with status %d", res.StatusCode)
		}
	}
	metrics.ObserveElastic(OpPing, start, err)
	if err != nil {
		c.logger.Warnf("ping %s failed: %v", c.conn.URL(), err)
		return &ConnectivityError{Conn: c.conn, Err: err}
	}
	return nil
}

// do runs one API call, turns error answers into a *QueryError and decodes
// the JSON body into out. Returned errors carry a stack trace.
func (c *Client) do(op, index string, call func() (*esapi.Response, error), out any) error {
	start := time.Now()
	err := c.doRaw(op, index, call, out)
	metrics.ObserveElastic(op, start, err)
	if err != nil {
		c.logger.Debugf("%s %s failed in %s: %v", op, index, time.Since(start), err)
	} else {
		c.logger.Debugf("%s %s took %s", op, index, time.Since(start))
	}
	return err
}

func (c *Client) doRaw(op, index string, call func() (*esapi.Response, error), out any) error {
	res, err := call()
	if err != nil {
		return errors.Wrapf(err, "%s %s", op, index)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.WithStack(parseQueryError(op, index, res.StatusCode, res.Body))
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s response", op)
	}
	return nil
}

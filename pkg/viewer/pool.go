package viewer

import (
	"context"
	"sync"

	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/elastic"
)

// Pool caches one elastic client per endpoint. Every Dial pings the
// endpoint, so an unreachable cluster is reported on each request rather
// than once.
type Pool struct {
	mu      sync.Mutex
	opts    elastic.Options
	clients map[string]*elastic.Client
}

func NewPool(opts elastic.Options) *Pool {
	return &Pool{
		opts:    opts,
		clients: make(map[string]*elastic.Client),
	}
}

// Dial implements Dialer.
func (p *Pool) Dial(ctx context.Context, conn core.Connection) (Backend, error) {
	key := conn.URL()

	p.mu.Lock()
	c, ok := p.clients[key]
	p.mu.Unlock()

	if ok {
		if err := c.Ping(ctx); err != nil {
			p.forget(key)
			return nil, err
		}
		return c, nil
	}

	c, err := elastic.Connect(ctx, conn, p.opts)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.clients[key] = c
	p.mu.Unlock()
	return c, nil
}

// Len returns the number of cached clients.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

func (p *Pool) forget(key string) {
	p.mu.Lock()
	delete(p.clients, key)
	p.mu.Unlock()
}

// Package session keeps per-browser viewer state: the selected connection,
// the selected index and the pagination state. Sessions are keyed by a
// random cookie value and live in a Store (in process or in redis).
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rubiojr/esview/pkg/config"
	"github.com/rubiojr/esview/pkg/core"
	"github.com/rubiojr/esview/pkg/log"
	"github.com/rubiojr/esview/pkg/pager"
)

// CookieName is the cookie that carries the session id.
const CookieName = "esview_session"

var ErrNotFound = errors.New("session not found")

// Session is the state one browser accumulates while navigating.
type Session struct {
	ID string `json:"id"`
	// Preset is the selected connection preset. Empty when Host is set.
	Preset string `json:"preset,omitempty"`
	// Host, Port and Scheme hold a free-entry connection.
	Host   string      `json:"host,omitempty"`
	Port   string      `json:"port,omitempty"`
	Scheme string      `json:"scheme,omitempty"`
	Index  string      `json:"index,omitempty"`
	Pager  pager.State `json:"pager"`
	// Rows is the row count of the last rendered table. Navigation
	// transitions are applied against it without refetching.
	Rows       int       `json:"rows"`
	ShowDetail bool      `json:"show_detail,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// New returns a fresh session with a random id.
func New(pageSize int) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Pager:     pager.New(pageSize),
		UpdatedAt: time.Now(),
	}
}

// SetConnection remembers a connection selection. A non-empty host selects
// free entry and clears the preset.
func (s *Session) SetConnection(preset, host, port, scheme string) {
	if host != "" {
		s.Preset = ""
		s.Host, s.Port, s.Scheme = host, port, scheme
		return
	}
	s.Preset = preset
	s.Host, s.Port, s.Scheme = "", "", ""
}

// Connection resolves the remembered selection against cfg.
func (s *Session) Connection(cfg *config.Config) (core.Connection, error) {
	return cfg.ResolveConnection(s.Preset, s.Host, s.Port, s.Scheme)
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// NewStore builds the store selected in the configuration.
func NewStore(ctx context.Context, cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.SessionMemory:
		return NewMemoryStore(cfg.TTL.Duration), nil
	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.TTL.Duration), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Manager binds a Store to HTTP requests through the session cookie.
type Manager struct {
	store    Store
	ttl      time.Duration
	pageSize func() int
	logger   *log.Logger
}

// NewManager returns a manager. pageSize supplies the page size given to new
// sessions, so configuration reloads apply to sessions created afterwards.
func NewManager(store Store, ttl time.Duration, pageSize func() int) *Manager {
	return &Manager{
		store:    store,
		ttl:      ttl,
		pageSize: pageSize,
		logger:   log.ForService("session"),
	}
}

// Load returns the session of the request, creating a new one when the
// cookie is absent, unknown or expired.
func (m *Manager) Load(r *http.Request) *Session {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		s, err := m.store.Get(r.Context(), c.Value)
		if err == nil {
			return s
		}
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warnf("loading session %s: %v", c.Value, err)
			if err := m.store.Delete(r.Context(), c.Value); err != nil {
				m.logger.Warnf("deleting unreadable session %s: %v", c.Value, err)
			}
		}
	}
	s := New(m.pageSize())
	m.logger.Debugf("new session %s", s.ID)
	return s
}

// Save stores the session and (re)sets the cookie.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	s.UpdatedAt = time.Now()
	if err := m.store.Save(r.Context(), s); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// cleaner is implemented by stores that have to drop expired sessions
// themselves. Redis expires keys on its own.
type cleaner interface {
	Cleanup() int
}

// Sweep removes expired sessions every interval until ctx is done. It
// returns at once when the store expires sessions on its own.
func (m *Manager) Sweep(ctx context.Context, interval time.Duration) {
	c, ok := m.store.(cleaner)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Cleanup(); n > 0 {
				m.logger.Debugf("removed %d expired sessions", n)
			}
		}
	}
}

func (m *Manager) Close() error {
	return m.store.Close()
}

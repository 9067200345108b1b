package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/atelier/pkg/logger"
)

// Reasons passed to the destroy observer.
const (
	ReasonConnectionTimeout = "connection_timeout"
	ReasonRequestTimeout    = "request_timeout"
	ReasonCloseTimeout      = "close_timeout"
)

// Config holds the three independent timeouts. Zero disables a timer.
type Config struct {
	ConnectionTimeout time.Duration `env:"CONNECTION_TIMEOUT" envDefault:"60s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CloseTimeout      time.Duration `env:"CLOSE_TIMEOUT" envDefault:"10s"`
}

type connKey struct{}

// Manager tracks every connection accepted through its listener.
type Manager struct {
	cfg       Config
	log       *slog.Logger
	onDestroy func(reason string)

	mu    sync.Mutex
	conns map[*trackedConn]struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for timer firings.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObserver registers fn to be called every time a socket is destroyed.
func WithObserver(fn func(reason string)) Option {
	return func(m *Manager) {
		m.onDestroy = fn
	}
}

// New creates a Manager.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:   cfg,
		log:   logger.NewNope(),
		conns: make(map[*trackedConn]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Listener wraps ln so every accepted connection gets a connection timer.
func (m *Manager) Listener(ln net.Listener) net.Listener {
	return &listener{Listener: ln, m: m}
}

// Configure installs the connection hooks and the request timer on srv.
// srv.Handler must be set beforehand.
func (m *Manager) Configure(srv *http.Server) {
	srv.Handler = m.Handler(srv.Handler)
	srv.ConnContext = func(ctx context.Context, c net.Conn) context.Context {
		if tc, ok := c.(*trackedConn); ok {
			return context.WithValue(ctx, connKey{}, tc)
		}
		return ctx
	}
	srv.ConnState = func(c net.Conn, state http.ConnState) {
		if state != http.StateClosed && state != http.StateHijacked {
			return
		}
		if tc, ok := c.(*trackedConn); ok {
			m.untrack(tc)
		}
	}
}

// Handler arms the request timer around next. When it fires, the socket is
// destroyed and the request context cancelled; nothing is written to the client.
func (m *Manager) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, _ := r.Context().Value(connKey{}).(*trackedConn)
		if tc == nil {
			next.ServeHTTP(w, r)
			return
		}

		tc.begin()
		defer tc.end()

		if m.cfg.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		timer := time.AfterFunc(m.cfg.RequestTimeout, func() {
			m.log.WarnContext(ctx, "request timeout, destroying connection",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("timeout", m.cfg.RequestTimeout),
			)
			m.destroy(tc, ReasonRequestTimeout)
			cancel()
		})
		defer timer.Stop()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Shutdown stops srv from accepting connections and waits up to CloseTimeout
// for in-flight requests. Connections still open afterwards are destroyed and
// ErrForcedClose is returned.
func (m *Manager) Shutdown(ctx context.Context, srv *http.Server) error {
	if m.cfg.CloseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.CloseTimeout)
		defer cancel()
	}

	err := srv.Shutdown(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}

	n := 0
	for _, c := range m.snapshot() {
		m.destroy(c, ReasonCloseTimeout)
		n++
	}
	m.log.WarnContext(ctx, "close timeout reached, destroyed open connections", slog.Int("connections", n))
	return ErrForcedClose
}

// Connections returns the number of tracked open connections.
func (m *Manager) Connections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

func (m *Manager) track(c net.Conn) *trackedConn {
	tc := &trackedConn{Conn: c, m: m}
	if m.cfg.ConnectionTimeout > 0 {
		tc.idle = time.AfterFunc(m.cfg.ConnectionTimeout, tc.expireIdle)
	}
	m.mu.Lock()
	m.conns[tc] = struct{}{}
	m.mu.Unlock()
	return tc
}

func (m *Manager) untrack(c *trackedConn) {
	m.mu.Lock()
	delete(m.conns, c)
	m.mu.Unlock()
}

func (m *Manager) snapshot() []*trackedConn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*trackedConn, 0, len(m.conns))
	for c := range m.conns {
		out = append(out, c)
	}
	return out
}

func (m *Manager) destroy(c *trackedConn, reason string) {
	c.reset()
	if reason == ReasonConnectionTimeout {
		m.log.Debug("connection idle timeout", slog.String("remote", remoteAddr(c)))
	}
	if m.onDestroy != nil {
		m.onDestroy(reason)
	}
}

func remoteAddr(c net.Conn) string {
	if a := c.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

type listener struct {
	net.Listener
	m *Manager
}

func (l *listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return l.m.track(c), nil
}

package lifecycle

import (
	"net"
	"sync"
	"time"
)

// trackedConn owns the connection timer for one accepted socket.
type trackedConn struct {
	net.Conn
	m *Manager

	mu     sync.Mutex
	idle   *time.Timer
	active int
	closed bool
}

// Read re-arms the connection timer whenever bytes arrive while no request is in flight.
func (c *trackedConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.touch()
	}
	return n, err
}

func (c *trackedConn) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.idle != nil {
		c.idle.Stop()
	}
	c.mu.Unlock()

	c.m.untrack(c)
	return c.Conn.Close()
}

func (c *trackedConn) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.idle != nil && c.active == 0 && !c.closed {
		c.idle.Reset(c.m.cfg.ConnectionTimeout)
	}
}

// begin suspends the connection timer for the duration of a request.
func (c *trackedConn) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active++
	if c.idle != nil {
		c.idle.Stop()
	}
}

// end re-arms the connection timer once the last in-flight request finishes.
func (c *trackedConn) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active--
	if c.active == 0 && c.idle != nil && !c.closed {
		c.idle.Reset(c.m.cfg.ConnectionTimeout)
	}
}

// expireIdle fires from the connection timer.
func (c *trackedConn) expireIdle() {
	c.mu.Lock()
	if c.closed || c.active > 0 {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.m.destroy(c, ReasonConnectionTimeout)
}

// reset drops the socket without a graceful FIN so the peer observes a reset.
func (c *trackedConn) reset() {
	if tcp, ok := c.Conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	_ = c.Close()
}

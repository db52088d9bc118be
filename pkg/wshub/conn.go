package wshub

import (
	"errors"
	"sync"
	"time"

	"github.com/wasselni/ridehail/pkg/uuid"
)

// Socket is the minimal transport a Conn needs. *websocket.Conn satisfies it;
// tests plug in fakes.
type Socket interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

var ErrConnDead = errors.New("connection is dead")

// Conn is one live realtime session of one user. A user may hold several
// simultaneous sessions (e.g. phone + tablet), each with its own Conn.
type Conn struct {
	id     uuid.UUID
	userID uuid.UUID
	role   string
	sock   Socket

	mu           sync.Mutex
	connectedAt  time.Time
	lastActivity time.Time
	alive        bool
}

func (c *Conn) ID() uuid.UUID     { return c.id }
func (c *Conn) UserID() uuid.UUID { return c.userID }
func (c *Conn) Role() string      { return c.role }

// Alive reports whether the connection is still considered deliverable.
func (c *Conn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// LastActivity returns the time of the last observed activity.
func (c *Conn) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// Send writes a single JSON message. Concurrent senders are serialized by the
// per-connection mutex. Fails fast on a dead connection.
func (c *Conn) Send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.alive {
		return ErrConnDead
	}
	return c.sock.WriteJSON(msg)
}

// Read blocks until the next JSON message from the peer arrives.
func (c *Conn) Read(dst any) error {
	return c.sock.ReadJSON(dst)
}

// touch records activity at t.
func (c *Conn) touch(t time.Time) {
	c.mu.Lock()
	c.lastActivity = t
	c.mu.Unlock()
}

// markDead flips the alive flag; the entry stays registered until the sweep
// drains it.
func (c *Conn) markDead() {
	c.mu.Lock()
	c.alive = false
	c.mu.Unlock()
}

func (c *Conn) close() error {
	c.markDead()
	return c.sock.Close()
}

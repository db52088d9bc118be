package wshub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/uuid"
)

var (
	ErrEmptySocket    = errors.New("socket is nil")
	ErrConnIsNotFound = errors.New("connection not found")
)

// Hub owns every live realtime session. It is the only component allowed to
// mutate or remove connection entries; all access goes through its mutex.
type Hub struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]*Conn               // by connection id
	byUser map[uuid.UUID]map[uuid.UUID]*Conn // user id -> conn id -> conn

	now func() time.Time
	l   logger.Logger
}

func NewHub(l logger.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*Conn),
		byUser: make(map[uuid.UUID]map[uuid.UUID]*Conn),
		now:    time.Now,
		l:      l,
	}
}

// Register adds a new live session for userID and returns its connection id.
// Unlike a single-session hub, an existing session of the same user is left
// untouched; users may hold several connections at once.
func (h *Hub) Register(userID uuid.UUID, role string, sock Socket) (uuid.UUID, error) {
	if sock == nil {
		return uuid.Nil, ErrEmptySocket
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	conn := &Conn{
		id:           uuid.MustNew(),
		userID:       userID,
		role:         role,
		sock:         sock,
		connectedAt:  now,
		lastActivity: now,
		alive:        true,
	}

	h.conns[conn.id] = conn
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[uuid.UUID]*Conn)
	}
	h.byUser[userID][conn.id] = conn

	return conn.id, nil
}

// Unregister removes and closes the session with the given connection id.
func (h *Hub) Unregister(connID uuid.UUID) error {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		h.remove(conn)
	}
	h.mu.Unlock()

	if !ok {
		return ErrConnIsNotFound
	}

	if err := conn.close(); err != nil {
		ctx := wrap.WithAction(context.Background(), "ws_connection_unregister")
		h.l.Warn(ctx, "failed to close conn", "conn_id", connID, "err", err.Error())
	}

	return nil
}

// MarkDead flips the session's alive flag without removing it; the periodic
// sweep drains dead entries.
func (h *Hub) MarkDead(connID uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	h.mu.Unlock()

	if ok {
		conn.markDead()
	}
}

// Touch records peer activity on the session.
func (h *Hub) Touch(connID uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	h.mu.Unlock()

	if ok {
		conn.touch(h.now())
	}
}

// ConnectionsFor returns the live sessions of userID. The returned slice is a
// snapshot; entries may die concurrently.
func (h *Hub) ConnectionsFor(userID uuid.UUID) []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*Conn, 0, len(h.byUser[userID]))
	for _, conn := range h.byUser[userID] {
		if conn.Alive() {
			out = append(out, conn)
		}
	}
	return out
}

// AllConnections returns a snapshot of every live session.
func (h *Hub) AllConnections() []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		if conn.Alive() {
			out = append(out, conn)
		}
	}
	return out
}

// Len returns the number of registered sessions, dead ones included.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// SweepInactive removes sessions that are marked dead or whose last activity
// predates now-staleAfter, closing their sockets. Returns how many were
// removed. Safe to re-run; already-removed entries are simply gone.
func (h *Hub) SweepInactive(now time.Time, staleAfter time.Duration) int {
	cutoff := now.Add(-staleAfter)

	h.mu.Lock()
	victims := make([]*Conn, 0)
	for _, conn := range h.conns {
		if !conn.Alive() || conn.LastActivity().Before(cutoff) {
			victims = append(victims, conn)
			h.remove(conn)
		}
	}
	h.mu.Unlock()

	// Close outside the hub lock.
	for _, conn := range victims {
		if err := conn.close(); err != nil {
			ctx := wrap.WithAction(context.Background(), "ws_sweep_inactive")
			h.l.Warn(ctx, "failed to close stale conn", "conn_id", conn.ID(), "err", err.Error())
		}
	}

	return len(victims)
}

// Close closes every session. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		all = append(all, conn)
		h.remove(conn)
	}
	h.mu.Unlock()

	for _, conn := range all {
		_ = conn.close()
	}

	ctx := wrap.WithAction(context.Background(), "hub_close")
	h.l.Info(ctx, "all websocket connections closed")
}

// remove must be called with h.mu held.
func (h *Hub) remove(conn *Conn) {
	delete(h.conns, conn.id)
	if userConns, ok := h.byUser[conn.userID]; ok {
		delete(userConns, conn.id)
		if len(userConns) == 0 {
			delete(h.byUser, conn.userID)
		}
	}
}

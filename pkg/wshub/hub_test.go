package wshub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wasselni/ridehail/pkg/logger"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type fakeSocket struct {
	mu       sync.Mutex
	written  []any
	writeErr error
	closed   bool
}

func (s *fakeSocket) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.written = append(s.written, v)
	return nil
}

func (s *fakeSocket) ReadJSON(any) error { return errors.New("not implemented") }

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestHub(now time.Time) *Hub {
	h := NewHub(logger.New("test", logger.LevelError))
	h.now = func() time.Time { return now }
	return h
}

func TestRegister(t *testing.T) {
	hub := newTestHub(time.Now())
	userID := uuid.MustNew()

	connID, err := hub.Register(userID, "DRIVER", &fakeSocket{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if connID.IsZero() {
		t.Fatal("connection id is zero")
	}

	conns := hub.ConnectionsFor(userID)
	if len(conns) != 1 {
		t.Fatalf("connections = %d, want 1", len(conns))
	}
	if conns[0].UserID() != userID || conns[0].Role() != "DRIVER" {
		t.Errorf("conn = %s/%s, want %s/DRIVER", conns[0].UserID(), conns[0].Role(), userID)
	}
}

func TestRegister_NilSocket(t *testing.T) {
	hub := newTestHub(time.Now())

	if _, err := hub.Register(uuid.MustNew(), "CUSTOMER", nil); !errors.Is(err, ErrEmptySocket) {
		t.Fatalf("want ErrEmptySocket, got %v", err)
	}
}

func TestRegister_MultipleSessionsPerUser(t *testing.T) {
	hub := newTestHub(time.Now())
	userID := uuid.MustNew()

	phone, tablet := &fakeSocket{}, &fakeSocket{}
	if _, err := hub.Register(userID, "CUSTOMER", phone); err != nil {
		t.Fatalf("Register phone: %v", err)
	}
	if _, err := hub.Register(userID, "CUSTOMER", tablet); err != nil {
		t.Fatalf("Register tablet: %v", err)
	}

	if got := len(hub.ConnectionsFor(userID)); got != 2 {
		t.Fatalf("connections = %d, want 2", got)
	}

	for _, conn := range hub.ConnectionsFor(userID) {
		if err := conn.Send("hi"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if len(phone.written) != 1 || len(tablet.written) != 1 {
		t.Errorf("delivery = %d/%d, want 1/1", len(phone.written), len(tablet.written))
	}
}

func TestUnregister(t *testing.T) {
	hub := newTestHub(time.Now())
	userID := uuid.MustNew()
	sock := &fakeSocket{}

	connID, err := hub.Register(userID, "CUSTOMER", sock)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := hub.Unregister(connID); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if !sock.isClosed() {
		t.Error("socket not closed on unregister")
	}
	if got := len(hub.ConnectionsFor(userID)); got != 0 {
		t.Errorf("connections = %d, want 0", got)
	}

	if err := hub.Unregister(connID); !errors.Is(err, ErrConnIsNotFound) {
		t.Fatalf("second Unregister: want ErrConnIsNotFound, got %v", err)
	}
}

func TestMarkDead(t *testing.T) {
	hub := newTestHub(time.Now())
	userID := uuid.MustNew()

	connID, err := hub.Register(userID, "CUSTOMER", &fakeSocket{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	hub.MarkDead(connID)

	// Dead connections are invisible to senders but still registered until
	// the sweep drains them.
	if got := len(hub.ConnectionsFor(userID)); got != 0 {
		t.Errorf("deliverable connections = %d, want 0", got)
	}
	if hub.Len() != 1 {
		t.Errorf("registered connections = %d, want 1", hub.Len())
	}
}

func TestSend_DeadConnection(t *testing.T) {
	hub := newTestHub(time.Now())

	connID, _ := hub.Register(uuid.MustNew(), "CUSTOMER", &fakeSocket{})
	conns := hub.AllConnections()
	hub.MarkDead(connID)

	if err := conns[0].Send("hi"); !errors.Is(err, ErrConnDead) {
		t.Fatalf("want ErrConnDead, got %v", err)
	}
}

func TestSweepInactive(t *testing.T) {
	start := time.Now()
	hub := newTestHub(start)

	fresh, stale, dead := &fakeSocket{}, &fakeSocket{}, &fakeSocket{}

	freshID, _ := hub.Register(uuid.MustNew(), "DRIVER", fresh)
	if _, err := hub.Register(uuid.MustNew(), "DRIVER", stale); err != nil {
		t.Fatalf("Register: %v", err)
	}
	deadID, _ := hub.Register(uuid.MustNew(), "DRIVER", dead)

	hub.MarkDead(deadID)

	// Only the fresh connection shows recent activity.
	later := start.Add(10 * time.Minute)
	hub.now = func() time.Time { return later }
	hub.Touch(freshID)

	n := hub.SweepInactive(later, 5*time.Minute)
	if n != 2 {
		t.Fatalf("swept = %d, want 2", n)
	}
	if !stale.isClosed() || !dead.isClosed() {
		t.Error("swept sockets not closed")
	}
	if fresh.isClosed() {
		t.Error("fresh socket was closed")
	}
	if hub.Len() != 1 {
		t.Errorf("registered connections = %d, want 1", hub.Len())
	}

	// Second sweep finds nothing.
	if n := hub.SweepInactive(later, 5*time.Minute); n != 0 {
		t.Fatalf("second sweep = %d, want 0", n)
	}
}

func TestClose(t *testing.T) {
	hub := newTestHub(time.Now())

	socks := []*fakeSocket{{}, {}, {}}
	for _, s := range socks {
		if _, err := hub.Register(uuid.MustNew(), "CUSTOMER", s); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	hub.Close()

	if hub.Len() != 0 {
		t.Errorf("registered connections = %d, want 0", hub.Len())
	}
	for i, s := range socks {
		if !s.isClosed() {
			t.Errorf("socket %d not closed", i)
		}
	}
}

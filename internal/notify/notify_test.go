package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	"github.com/wasselni/ridehail/pkg/uuid"
	"github.com/wasselni/ridehail/pkg/wshub"
)

type fakeSocket struct {
	mu       sync.Mutex
	written  []any
	writeErr error
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
func (s *fakeSocket) Close() error       { return nil }

func (s *fakeSocket) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	saved []*models.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, n)
	return nil
}

type fakePush struct {
	mu        sync.Mutex
	delivered []uuid.UUID
}

func (p *fakePush) Deliver(_ context.Context, userID uuid.UUID, _ models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered = append(p.delivered, userID)
	return nil
}

func newTestService(t *testing.T) (*Service, *wshub.Hub, *fakeNotificationRepo, *fakePush) {
	t.Helper()
	hub := wshub.NewHub(logger.New("test", logger.LevelError))
	repo := &fakeNotificationRepo{}
	push := &fakePush{}
	svc := New(hub, repo, push, logger.New("test", logger.LevelError))
	return svc, hub, repo, push
}

func TestNotifyUser(t *testing.T) {
	svc, hub, repo, push := newTestService(t)
	userID := uuid.MustNew()
	rideID := uuid.MustNew()

	sock := &fakeSocket{}
	if _, err := hub.Register(userID, "CUSTOMER", sock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc.NotifyUser(context.Background(), userID, models.NewEvent(models.EventRideAccepted, rideID, nil))

	if sock.count() != 1 {
		t.Fatalf("delivered = %d, want 1", sock.count())
	}
	if len(push.delivered) != 0 {
		t.Error("push fired despite a live connection")
	}

	if len(repo.saved) != 1 {
		t.Fatalf("persisted = %d, want 1", len(repo.saved))
	}
	n := repo.saved[0]
	if n.UserID != userID || n.Kind != types.NotifyRideAccepted {
		t.Errorf("notification = %+v", n)
	}
	if n.RideID == nil || *n.RideID != rideID {
		t.Errorf("notification ride id = %v, want %s", n.RideID, rideID)
	}
}

func TestNotifyUser_BrokenSocketDoesNotBlockOthers(t *testing.T) {
	svc, hub, _, push := newTestService(t)
	userID := uuid.MustNew()

	broken := &fakeSocket{writeErr: errors.New("write: broken pipe")}
	healthy := &fakeSocket{}
	if _, err := hub.Register(userID, "CUSTOMER", broken); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := hub.Register(userID, "CUSTOMER", healthy); err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc.NotifyUser(context.Background(), userID, models.NewEvent(models.EventTripStarted, uuid.MustNew(), nil))

	if healthy.count() != 1 {
		t.Fatalf("healthy socket delivered = %d, want 1", healthy.count())
	}
	// At least one delivery landed, so no push fallback.
	if len(push.delivered) != 0 {
		t.Error("push fired despite a successful delivery")
	}
	// The broken connection is out of the delivery set.
	if got := len(hub.ConnectionsFor(userID)); got != 1 {
		t.Errorf("deliverable connections = %d, want 1", got)
	}
}

func TestNotifyUser_OfflineFallsBackToPush(t *testing.T) {
	svc, _, repo, push := newTestService(t)
	userID := uuid.MustNew()

	svc.NotifyUser(context.Background(), userID, models.NewEvent(models.EventRideCancelled, uuid.MustNew(), nil))

	if len(push.delivered) != 1 || push.delivered[0] != userID {
		t.Errorf("push delivered = %v, want [%s]", push.delivered, userID)
	}
	// The notification is stored either way.
	if len(repo.saved) != 1 {
		t.Errorf("persisted = %d, want 1", len(repo.saved))
	}
}

func TestNotifyUser_TransientKindsNotPersisted(t *testing.T) {
	svc, hub, repo, _ := newTestService(t)
	userID := uuid.MustNew()

	sock := &fakeSocket{}
	if _, err := hub.Register(userID, "CUSTOMER", sock); err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc.NotifyUser(context.Background(), userID, models.NewEvent(
		models.EventLocationUpdate, uuid.MustNew(), models.LocationUpdateData{Latitude: 31.9, Longitude: 35.9}))

	if sock.count() != 1 {
		t.Fatalf("delivered = %d, want 1", sock.count())
	}
	if len(repo.saved) != 0 {
		t.Errorf("transient event was persisted: %+v", repo.saved)
	}
}

func TestNotifyUsers(t *testing.T) {
	svc, hub, repo, _ := newTestService(t)
	userA, userB := uuid.MustNew(), uuid.MustNew()
	rideID := uuid.MustNew()

	sockA, sockB := &fakeSocket{}, &fakeSocket{}
	if _, err := hub.Register(userA, "CUSTOMER", sockA); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := hub.Register(userB, "DRIVER", sockB); err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc.NotifyUsers(context.Background(), []uuid.UUID{userA, userB},
		models.NewEvent(models.EventTripCompleted, rideID, nil))

	if sockA.count() != 1 || sockB.count() != 1 {
		t.Fatalf("delivery = %d/%d, want 1/1", sockA.count(), sockB.count())
	}
	// One stored notification per recipient.
	if len(repo.saved) != 2 {
		t.Fatalf("persisted = %d, want 2", len(repo.saved))
	}
	recipients := map[uuid.UUID]bool{}
	for _, n := range repo.saved {
		recipients[n.UserID] = true
	}
	if !recipients[userA] || !recipients[userB] {
		t.Errorf("persisted recipients = %v, want both users", recipients)
	}
}

func TestNotifyUser_NilRepoAndPushTolerated(t *testing.T) {
	hub := wshub.NewHub(logger.New("test", logger.LevelError))
	svc := New(hub, nil, nil, logger.New("test", logger.LevelError))

	// Must not panic with nothing wired and nobody connected.
	svc.NotifyUser(context.Background(), uuid.MustNew(), models.NewEvent(models.EventRideAccepted, uuid.MustNew(), nil))
}

func TestBroadcast(t *testing.T) {
	svc, hub, _, _ := newTestService(t)

	socks := []*fakeSocket{{}, {}, {writeErr: errors.New("gone")}}
	for _, s := range socks {
		if _, err := hub.Register(uuid.MustNew(), "DRIVER", s); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	svc.Broadcast(context.Background(), models.NewEvent(models.EventConnectionStatus, uuid.Nil, nil))

	if socks[0].count() != 1 || socks[1].count() != 1 {
		t.Errorf("delivery = %d/%d, want 1/1", socks[0].count(), socks[1].count())
	}
	if hub.Len() != 3 {
		t.Errorf("registered = %d, want 3 until the sweep runs", hub.Len())
	}
}

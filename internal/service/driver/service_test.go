package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type fakeUserRepo struct {
	statuses  map[uuid.UUID]types.DriverStatus
	positions map[uuid.UUID][2]float64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		statuses:  make(map[uuid.UUID]types.DriverStatus),
		positions: make(map[uuid.UUID][2]float64),
	}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, Role: types.RoleDriver}, nil
}

func (r *fakeUserRepo) SetDriverStatus(_ context.Context, driverID uuid.UUID, status types.DriverStatus) error {
	r.statuses[driverID] = status
	return nil
}

func (r *fakeUserRepo) UpdatePosition(_ context.Context, userID uuid.UUID, lat, lng float64) error {
	r.positions[userID] = [2]float64{lat, lng}
	return nil
}

type fakeLocationRepo struct {
	recorded []*models.DriverLocation
	purged   time.Time
}

func (r *fakeLocationRepo) Create(_ context.Context, loc *models.DriverLocation) error {
	r.recorded = append(r.recorded, loc)
	return nil
}

func (r *fakeLocationRepo) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.purged = cutoff
	n := 0
	for _, loc := range r.recorded {
		if loc.RecordedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}

type fakeRideRepo struct {
	active *models.Ride
}

func (r *fakeRideRepo) FindActiveByUser(_ context.Context, _ uuid.UUID) (*models.Ride, error) {
	if r.active == nil {
		return nil, types.ErrRideNotFound
	}
	return r.active, nil
}

type fakeGeo struct {
	members map[uuid.UUID][2]float64
}

func newFakeGeo() *fakeGeo {
	return &fakeGeo{members: make(map[uuid.UUID][2]float64)}
}

func (g *fakeGeo) Update(_ context.Context, driverID uuid.UUID, lat, lng float64) error {
	g.members[driverID] = [2]float64{lat, lng}
	return nil
}

func (g *fakeGeo) Remove(_ context.Context, driverID uuid.UUID) error {
	delete(g.members, driverID)
	return nil
}

type fakeNotifier struct {
	sent map[uuid.UUID][]models.Event
}

func (n *fakeNotifier) NotifyUser(_ context.Context, userID uuid.UUID, ev models.Event) {
	if n.sent == nil {
		n.sent = make(map[uuid.UUID][]models.Event)
	}
	n.sent[userID] = append(n.sent[userID], ev)
}

type harness struct {
	svc       *Service
	users     *fakeUserRepo
	locations *fakeLocationRepo
	rides     *fakeRideRepo
	geo       *fakeGeo
	notifier  *fakeNotifier
}

func newHarness() *harness {
	h := &harness{
		users:     newFakeUserRepo(),
		locations: &fakeLocationRepo{},
		rides:     &fakeRideRepo{},
		geo:       newFakeGeo(),
		notifier:  &fakeNotifier{},
	}
	h.svc = New(h.users, h.locations, h.rides, h.geo, h.notifier, logger.New("test", logger.LevelError))
	return h
}

func TestGoOnline(t *testing.T) {
	h := newHarness()
	driverID := uuid.MustNew()

	if err := h.svc.GoOnline(context.Background(), driverID, 31.95, 35.91); err != nil {
		t.Fatalf("GoOnline: %v", err)
	}

	if h.users.statuses[driverID] != types.StatusDriverOnline {
		t.Errorf("status = %s, want ONLINE", h.users.statuses[driverID])
	}
	if _, ok := h.geo.members[driverID]; !ok {
		t.Error("driver missing from geo index")
	}
	if len(h.locations.recorded) != 1 {
		t.Errorf("recorded positions = %d, want 1", len(h.locations.recorded))
	}
}

func TestGoOffline(t *testing.T) {
	h := newHarness()
	driverID := uuid.MustNew()

	if err := h.svc.GoOnline(context.Background(), driverID, 31.95, 35.91); err != nil {
		t.Fatalf("GoOnline: %v", err)
	}
	if err := h.svc.GoOffline(context.Background(), driverID); err != nil {
		t.Fatalf("GoOffline: %v", err)
	}

	if h.users.statuses[driverID] != types.StatusDriverOffline {
		t.Errorf("status = %s, want OFFLINE", h.users.statuses[driverID])
	}
	if _, ok := h.geo.members[driverID]; ok {
		t.Error("driver still in geo index")
	}
}

func TestGoOffline_ActiveRideBlocks(t *testing.T) {
	h := newHarness()
	driverID := uuid.MustNew()
	h.rides.active = &models.Ride{ID: uuid.MustNew(), Status: types.StatusInProgress}

	err := h.svc.GoOffline(context.Background(), driverID)
	if !errors.Is(err, types.ErrActiveRideExists) {
		t.Fatalf("want ErrActiveRideExists, got %v", err)
	}
}

func TestUpdateLocation(t *testing.T) {
	h := newHarness()
	driverID := uuid.MustNew()

	if err := h.svc.UpdateLocation(context.Background(), driverID, 31.96, 35.92); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	if got := h.users.positions[driverID]; got != [2]float64{31.96, 35.92} {
		t.Errorf("stored position = %v", got)
	}
	if got := h.geo.members[driverID]; got != [2]float64{31.96, 35.92} {
		t.Errorf("geo position = %v", got)
	}
	if len(h.notifier.sent) != 0 {
		t.Error("relayed position with no active ride")
	}
}

func TestUpdateLocation_RelayedToCustomer(t *testing.T) {
	h := newHarness()
	driverID := uuid.MustNew()
	customerID := uuid.MustNew()
	rideID := uuid.MustNew()
	h.rides.active = &models.Ride{ID: rideID, CustomerID: customerID, Status: types.StatusAccepted}

	if err := h.svc.UpdateLocation(context.Background(), driverID, 31.96, 35.92); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	evs := h.notifier.sent[customerID]
	if len(evs) != 1 || evs[0].Kind != models.EventLocationUpdate {
		t.Fatalf("customer events = %+v, want one location_update", evs)
	}
	data, ok := evs[0].Data.(models.LocationUpdateData)
	if !ok {
		t.Fatalf("payload = %T, want LocationUpdateData", evs[0].Data)
	}
	if data.UserID != driverID || data.Latitude != 31.96 || data.Longitude != 35.92 {
		t.Errorf("payload = %+v", data)
	}
	if evs[0].RideID != rideID {
		t.Errorf("ride id = %s, want %s", evs[0].RideID, rideID)
	}
}

func TestPurgeStaleLocations(t *testing.T) {
	h := newHarness()
	driverID := uuid.MustNew()

	now := time.Now().UTC()
	h.svc.now = func() time.Time { return now.Add(-48 * time.Hour) }
	if err := h.svc.UpdateLocation(context.Background(), driverID, 31.9, 35.9); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	h.svc.now = func() time.Time { return now }
	if err := h.svc.UpdateLocation(context.Background(), driverID, 31.91, 35.91); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	n, err := h.svc.PurgeStaleLocations(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeStaleLocations: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged = %d, want 1", n)
	}
	if want := now.Add(-24 * time.Hour); !h.locations.purged.Equal(want) {
		t.Errorf("cutoff = %v, want %v", h.locations.purged, want)
	}
}

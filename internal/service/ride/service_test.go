package ride

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/internal/service/pricing"
	"github.com/wasselni/ridehail/pkg/logger"
	"github.com/wasselni/ridehail/pkg/uuid"
)

// ---- fakes ----

// passTx runs the callback directly; repositories in tests do not need a
// real transaction.
type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]models.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[uuid.UUID]models.Ride)}
}

func (r *fakeRideRepo) Create(_ context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rides[ride.ID] = *ride
	return nil
}

func (r *fakeRideRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return &ride, nil
}

func (r *fakeRideRepo) Update(_ context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rides[ride.ID]; !ok {
		return types.ErrRideNotFound
	}
	r.rides[ride.ID] = *ride
	return nil
}

func (r *fakeRideRepo) FindActiveByUser(_ context.Context, userID uuid.UUID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ride := range r.rides {
		if ride.Status.IsTerminal() {
			continue
		}
		if ride.CustomerID == userID || (ride.DriverID != nil && *ride.DriverID == userID) {
			found := ride
			return &found, nil
		}
	}
	return nil, types.ErrRideNotFound
}

func (r *fakeRideRepo) ListByUser(_ context.Context, userID uuid.UUID, filters models.Filters) ([]*models.Ride, models.Metadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Ride
	for _, ride := range r.rides {
		if ride.CustomerID == userID || (ride.DriverID != nil && *ride.DriverID == userID) {
			found := ride
			out = append(out, &found)
		}
	}
	return out, models.CalculateMetadata(len(out), filters.Page, filters.PageSize), nil
}

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	statuses map[uuid.UUID]types.DriverStatus
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:    make(map[uuid.UUID]models.User),
		statuses: make(map[uuid.UUID]types.DriverStatus),
	}
	for _, u := range users {
		r.users[u.ID] = *u
	}
	return r
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) SetDriverStatus(_ context.Context, driverID uuid.UUID, status types.DriverStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[driverID]; !ok {
		return types.ErrUserNotFound
	}
	r.statuses[driverID] = status
	return nil
}

func (r *fakeUserRepo) statusOf(id uuid.UUID) types.DriverStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[id]
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []*models.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, p)
	return nil
}

type fakeDispatcher struct {
	mu           sync.Mutex
	broadcastErr error
	broadcasts   int
	closed       []uuid.UUID
}

func (d *fakeDispatcher) Broadcast(_ context.Context, _ *models.Ride) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcasts++
	if d.broadcastErr != nil {
		return 0, d.broadcastErr
	}
	return 3, nil
}

func (d *fakeDispatcher) CloseOpenRequests(_ context.Context, rideID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = append(d.closed, rideID)
	return nil
}

type sentEvent struct {
	userID uuid.UUID
	ev     models.Event
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (n *fakeNotifier) NotifyUser(_ context.Context, userID uuid.UUID, ev models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{userID: userID, ev: ev})
}

func (n *fakeNotifier) eventsFor(userID uuid.UUID) []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Event
	for _, s := range n.sent {
		if s.userID == userID {
			out = append(out, s.ev)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *fakePublisher) PublishRideEvent(_ context.Context, ev models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// ---- harness ----

type harness struct {
	svc      *Service
	rides    *fakeRideRepo
	users    *fakeUserRepo
	payments *fakePaymentRepo
	dispatch *fakeDispatcher
	notifier *fakeNotifier
	pub      *fakePublisher
	fares    *pricing.Calculator
}

func newHarness(t *testing.T, users ...*models.User) *harness {
	t.Helper()

	h := &harness{
		rides:    newFakeRideRepo(),
		users:    newFakeUserRepo(users...),
		payments: &fakePaymentRepo{},
		dispatch: &fakeDispatcher{},
		notifier: &fakeNotifier{},
		pub:      &fakePublisher{},
		fares:    pricing.New(pricing.DefaultRates()),
	}
	h.svc = New(h.rides, h.users, h.payments, h.dispatch, h.notifier, h.pub, h.fares, passTx{}, logger.New("test", logger.LevelError))
	return h
}

func driverUser(name string) *models.User {
	rating := 4.8
	status := types.StatusDriverOnline
	return &models.User{
		ID:           uuid.MustNew(),
		FullName:     name,
		Role:         types.RoleDriver,
		DriverStatus: &status,
		Rating:       &rating,
	}
}

var (
	pickup  = models.Location{Latitude: 31.9539, Longitude: 35.9106, Address: "Rainbow St"}
	dropoff = models.Location{Latitude: 31.9730, Longitude: 35.8680, Address: "Wadi Saqra"}
)

// ---- tests ----

func TestCreate(t *testing.T) {
	h := newHarness(t)
	customerID := uuid.MustNew()

	ride, err := h.svc.Create(context.Background(), customerID, pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ride.Status != types.StatusRequested {
		t.Errorf("status = %s, want REQUESTED", ride.Status)
	}
	if ride.EstimatedFare <= 0 {
		t.Errorf("estimated fare = %v, want > 0", ride.EstimatedFare)
	}
	if h.dispatch.broadcasts != 1 {
		t.Errorf("broadcasts = %d, want 1", h.dispatch.broadcasts)
	}
	if len(h.pub.events) != 1 || h.pub.events[0].Kind != models.EventRideRequest {
		t.Errorf("published events = %+v, want one ride_request", h.pub.events)
	}
}

func TestCreate_SecondActiveRideRejected(t *testing.T) {
	h := newHarness(t)
	customerID := uuid.MustNew()

	if _, err := h.svc.Create(context.Background(), customerID, pickup, dropoff, nil); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := h.svc.Create(context.Background(), customerID, pickup, dropoff, nil)
	if !errors.Is(err, types.ErrActiveRideExists) {
		t.Fatalf("second Create: want ErrActiveRideExists, got %v", err)
	}
}

func TestCreate_NoDriversLeavesRideRequested(t *testing.T) {
	h := newHarness(t)
	h.dispatch.broadcastErr = types.ErrNoDriversAvailable

	ride, err := h.svc.Create(context.Background(), uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create must not fail when nobody is nearby: %v", err)
	}

	stored, err := h.rides.FindByID(context.Background(), ride.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != types.StatusRequested {
		t.Errorf("status = %s, want REQUESTED", stored.Status)
	}
}

func TestAccept(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)
	customerID := uuid.MustNew()

	ride, err := h.svc.Create(context.Background(), customerID, pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	accepted, err := h.svc.Accept(context.Background(), ride.ID, driver.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if accepted.Status != types.StatusAccepted {
		t.Errorf("status = %s, want ACCEPTED", accepted.Status)
	}
	if accepted.DriverID == nil || *accepted.DriverID != driver.ID {
		t.Errorf("driver id = %v, want %s", accepted.DriverID, driver.ID)
	}
	if accepted.AcceptedAt == nil {
		t.Error("accepted_at not set")
	}
	if got := h.users.statusOf(driver.ID); got != types.StatusDriverBusy {
		t.Errorf("driver status = %s, want BUSY", got)
	}
	if len(h.dispatch.closed) != 1 || h.dispatch.closed[0] != ride.ID {
		t.Errorf("open requests not closed: %v", h.dispatch.closed)
	}

	evs := h.notifier.eventsFor(customerID)
	if len(evs) != 1 || evs[0].Kind != models.EventRideAccepted {
		t.Errorf("customer events = %+v, want one ride_accepted", evs)
	}
}

func TestAccept_SecondDriverLoses(t *testing.T) {
	first, second := driverUser("Omar"), driverUser("Lina")
	h := newHarness(t, first, second)

	ride, err := h.svc.Create(context.Background(), uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := h.svc.Accept(context.Background(), ride.ID, first.ID); err != nil {
		t.Fatalf("first Accept: %v", err)
	}

	_, err = h.svc.Accept(context.Background(), ride.ID, second.ID)
	if !errors.Is(err, types.ErrRideAlreadyTaken) {
		t.Fatalf("second Accept: want ErrRideAlreadyTaken, got %v", err)
	}
}

func TestAccept_ConcurrentSingleWinner(t *testing.T) {
	const drivers = 8

	users := make([]*models.User, 0, drivers)
	for i := 0; i < drivers; i++ {
		users = append(users, driverUser("driver"))
	}
	h := newHarness(t, users...)

	ride, err := h.svc.Create(context.Background(), uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, u := range users {
		wg.Add(1)
		go func(driverID uuid.UUID) {
			defer wg.Done()
			if _, err := h.svc.Accept(context.Background(), ride.ID, driverID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, types.ErrRideAlreadyTaken) {
				t.Errorf("loser got unexpected error: %v", err)
			}
		}(u.ID)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("winners = %d, want exactly 1", wins)
	}
}

func TestAccept_BusyDriverRejected(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)

	first, err := h.svc.Create(context.Background(), uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(context.Background(), first.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	second, err := h.svc.Create(context.Background(), uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	_, err = h.svc.Accept(context.Background(), second.ID, driver.ID)
	if !errors.Is(err, types.ErrActiveRideExists) {
		t.Fatalf("want ErrActiveRideExists, got %v", err)
	}
}

func TestLifecycle_ArrivedStartComplete(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)
	customerID := uuid.MustNew()
	ctx := context.Background()

	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) // off peak
	h.svc.now = func() time.Time { return created }

	ride, err := h.svc.Create(ctx, customerID, pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := h.svc.DriverArrived(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("DriverArrived: %v", err)
	}
	if _, err := h.svc.Start(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	completed, err := h.svc.Complete(ctx, ride.ID, driver.ID, 8.4, 19)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if completed.Status != types.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", completed.Status)
	}

	// Fare is priced from the actual trip numbers at the ride's creation time.
	want := h.fares.Fare(8.4, 19, created)
	if completed.ActualFare == nil || *completed.ActualFare != want {
		t.Errorf("actual fare = %v, want %v", completed.ActualFare, want)
	}

	if got := h.users.statusOf(driver.ID); got != types.StatusDriverOnline {
		t.Errorf("driver status = %s, want ONLINE after completion", got)
	}

	if len(h.payments.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(h.payments.payments))
	}
	p := h.payments.payments[0]
	if p.Amount != want || p.Status != types.PaymentPending {
		t.Errorf("payment = %+v, want pending payment of %v", p, want)
	}
}

func TestComplete_PeakPricedByCreationTime(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)
	ctx := context.Background()

	// Created during the morning peak, completed after it.
	created := time.Date(2026, time.March, 10, 8, 30, 0, 0, time.UTC)
	h.svc.now = func() time.Time { return created }

	ride, err := h.svc.Create(ctx, uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := h.svc.DriverArrived(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("DriverArrived: %v", err)
	}
	if _, err := h.svc.Start(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.svc.now = func() time.Time { return created.Add(2 * time.Hour) }

	completed, err := h.svc.Complete(ctx, ride.ID, driver.ID, 10, 20)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	want := h.fares.Fare(10, 20, created)
	if *completed.ActualFare != want {
		t.Errorf("actual fare = %v, want peak fare %v", *completed.ActualFare, want)
	}
	offPeak := h.fares.Fare(10, 20, created.Add(2*time.Hour))
	if *completed.ActualFare == offPeak {
		t.Error("fare was priced by completion time, not creation time")
	}
}

func TestTransition_WrongDriver(t *testing.T) {
	driver, imposter := driverUser("Omar"), driverUser("Evil")
	h := newHarness(t, driver, imposter)
	ctx := context.Background()

	ride, err := h.svc.Create(ctx, uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if _, err := h.svc.DriverArrived(ctx, ride.ID, imposter.ID); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("want ErrRideNotFound for a stranger, got %v", err)
	}
}

func TestStart_BeforeArrivalRejected(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)
	ctx := context.Background()

	ride, err := h.svc.Create(ctx, uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	_, err = h.svc.Start(ctx, ride.ID, driver.ID)
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)
	customerID := uuid.MustNew()
	ctx := context.Background()

	ride, err := h.svc.Create(ctx, customerID, pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	cancelled, err := h.svc.Cancel(ctx, ride.ID, customerID, "changed my mind")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if cancelled.Status != types.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancellationReason == nil || *cancelled.CancellationReason != "changed my mind" {
		t.Errorf("reason = %v", cancelled.CancellationReason)
	}
	if got := h.users.statusOf(driver.ID); got != types.StatusDriverOnline {
		t.Errorf("driver status = %s, want ONLINE after cancel", got)
	}

	// Only the counterpart hears about the cancellation.
	if evs := h.notifier.eventsFor(driver.ID); len(evs) != 1 || evs[0].Kind != models.EventRideCancelled {
		t.Errorf("driver events = %+v, want one ride_cancelled", evs)
	}
	for _, ev := range h.notifier.eventsFor(customerID) {
		if ev.Kind == models.EventRideCancelled {
			t.Error("the cancelling party must not be notified")
		}
	}
}

func TestCancel_StrangerRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ride, err := h.svc.Create(ctx, uuid.MustNew(), pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = h.svc.Cancel(ctx, ride.ID, uuid.MustNew(), "not mine")
	if !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("want ErrRideNotFound, got %v", err)
	}
}

func TestCancel_InProgress(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)
	customerID := uuid.MustNew()
	ctx := context.Background()

	ride, err := h.svc.Create(ctx, customerID, pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := h.svc.DriverArrived(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("DriverArrived: %v", err)
	}
	if _, err := h.svc.Start(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancelled, err := h.svc.Cancel(ctx, ride.ID, customerID, "emergency")
	if err != nil {
		t.Fatalf("Cancel of in-progress ride: %v", err)
	}
	if cancelled.Status != types.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if got := h.users.statusOf(driver.ID); got != types.StatusDriverOnline {
		t.Errorf("driver status = %s, want ONLINE after cancel", got)
	}
}

func TestCancel_CompletedRejected(t *testing.T) {
	driver := driverUser("Omar")
	h := newHarness(t, driver)
	customerID := uuid.MustNew()
	ctx := context.Background()

	ride, err := h.svc.Create(ctx, customerID, pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := h.svc.Accept(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := h.svc.DriverArrived(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("DriverArrived: %v", err)
	}
	if _, err := h.svc.Start(ctx, ride.ID, driver.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := h.svc.Complete(ctx, ride.ID, driver.ID, 8.4, 19); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	_, err = h.svc.Cancel(ctx, ride.ID, customerID, "too late")
	if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestGet_PartyCheck(t *testing.T) {
	h := newHarness(t)
	customerID := uuid.MustNew()
	ctx := context.Background()

	ride, err := h.svc.Create(ctx, customerID, pickup, dropoff, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := h.svc.Get(ctx, ride.ID, customerID); err != nil {
		t.Fatalf("Get as customer: %v", err)
	}
	if _, err := h.svc.Get(ctx, ride.ID, uuid.MustNew()); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("Get as stranger: want ErrRideNotFound, got %v", err)
	}
}

package notify

import (
	"context"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/uuid"
	"github.com/wasselni/ridehail/pkg/wshub"
)

/*
Service fans realtime events out to users. Delivery is best effort: a failed
write marks that one connection dead and moves on, so one broken socket never
blocks the others and never fails the business operation that triggered the
event.

Ride lifecycle events are also persisted as notifications so a user who was
offline can catch up later.
*/
type Service struct {
	hub  *wshub.Hub
	repo NotificationRepo
	push PushProvider // optional
	l    logger.Logger
	now  func() time.Time
}

func New(hub *wshub.Hub, repo NotificationRepo, push PushProvider, l logger.Logger) *Service {
	return &Service{
		hub:  hub,
		repo: repo,
		push: push,
		l:    l,
		now:  time.Now,
	}
}

// persistedKinds maps wire event kinds to stored notification kinds. Events
// outside this table (location updates, acks) are transient.
var persistedKinds = map[string]types.NotificationKind{
	models.EventRideRequest:   types.NotifyRideRequest,
	models.EventRideAccepted:  types.NotifyRideAccepted,
	models.EventDriverArrived: types.NotifyDriverArrived,
	models.EventTripStarted:   types.NotifyTripStarted,
	models.EventTripCompleted: types.NotifyTripCompleted,
	models.EventRideCancelled: types.NotifyRideCancelled,
}

var notificationTitles = map[types.NotificationKind]string{
	types.NotifyRideRequest:   "New ride request",
	types.NotifyRideAccepted:  "Your ride was accepted",
	types.NotifyDriverArrived: "Your driver has arrived",
	types.NotifyTripStarted:   "Trip started",
	types.NotifyTripCompleted: "Trip completed",
	types.NotifyRideCancelled: "Ride cancelled",
}

// NotifyUser pushes ev to every live connection of userID. Never returns an
// error; failures are logged and the failing connection is marked dead.
func (s *Service) NotifyUser(ctx context.Context, userID uuid.UUID, ev models.Event) {
	s.persist(ctx, userID, ev)

	conns := s.hub.ConnectionsFor(userID)
	if len(conns) == 0 {
		s.deliverPush(ctx, userID, ev)
		return
	}

	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(ev); err != nil {
			s.hub.MarkDead(conn.ID())
			s.l.Warn(ctx, "failed to deliver event, connection marked dead",
				"kind", ev.Kind, "conn_id", conn.ID(), "error", err.Error())
			continue
		}
		delivered++
	}

	if delivered == 0 {
		s.deliverPush(ctx, userID, ev)
	}
}

// NotifyUsers fans ev out to several users.
func (s *Service) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, ev models.Event) {
	for _, id := range userIDs {
		s.NotifyUser(ctx, id, ev)
	}
}

// Broadcast sends ev to every live connection regardless of user.
func (s *Service) Broadcast(ctx context.Context, ev models.Event) {
	for _, conn := range s.hub.AllConnections() {
		if err := conn.Send(ev); err != nil {
			s.hub.MarkDead(conn.ID())
			s.l.Warn(ctx, "failed to broadcast event, connection marked dead",
				"kind", ev.Kind, "conn_id", conn.ID(), "error", err.Error())
		}
	}
}

func (s *Service) persist(ctx context.Context, userID uuid.UUID, ev models.Event) {
	kind, ok := persistedKinds[ev.Kind]
	if !ok || s.repo == nil {
		return
	}

	n := &models.Notification{
		ID:        uuid.MustNew(),
		UserID:    userID,
		Kind:      kind,
		Title:     notificationTitles[kind],
		CreatedAt: s.now().UTC(),
	}
	if !ev.RideID.IsZero() {
		rideID := ev.RideID
		n.RideID = &rideID
	}

	if err := s.repo.Create(ctx, n); err != nil {
		ctx = wrap.WithAction(ctx, "persist_notification")
		s.l.Warn(ctx, "failed to persist notification", "kind", ev.Kind, "error", err.Error())
	}
}

func (s *Service) deliverPush(ctx context.Context, userID uuid.UUID, ev models.Event) {
	if s.push == nil {
		return
	}
	if _, ok := persistedKinds[ev.Kind]; !ok {
		return
	}
	if err := s.push.Deliver(ctx, userID, ev); err != nil {
		s.l.Warn(ctx, "push delivery failed", "kind", ev.Kind, "error", err.Error())
	}
}

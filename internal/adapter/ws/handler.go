package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/metrics"
	"github.com/wasselni/ridehail/pkg/uuid"
	"github.com/wasselni/ridehail/pkg/wshub"
)

type AuthService interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type DriverService interface {
	UpdateLocation(ctx context.Context, driverID uuid.UUID, lat, lng float64) error
}

type DispatchService interface {
	Respond(ctx context.Context, requestID, driverID uuid.UUID, accepted bool) (*models.RideRequest, error)
}

type RideService interface {
	Accept(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
}

// Handler upgrades HTTP requests to realtime sessions and runs the per-
// connection command loop.
type Handler struct {
	hub      *wshub.Hub
	auth     AuthService
	drivers  DriverService
	dispatch DispatchService
	rides    RideService
	l        logger.Logger

	upgrader websocket.Upgrader
}

func NewHandler(hub *wshub.Hub, auth AuthService, drivers DriverService, dispatch DispatchService, rides RideService, l logger.Logger) *Handler {
	return &Handler{
		hub:      hub,
		auth:     auth,
		drivers:  drivers,
		dispatch: dispatch,
		rides:    rides,
		l:        l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Connect authenticates the caller, upgrades the connection and serves its
// command loop until the peer goes away. Auth uses the token query parameter
// because browser WebSocket clients cannot set headers.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_connect")

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	ctx = wrap.WithUserID(ctx, user.ID.String())

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	connID, err := h.hub.Register(user.ID, user.Role.String(), sock)
	if err != nil {
		h.l.Error(ctx, "failed to register connection", err)
		sock.Close()
		return
	}
	metrics.WebSocketConnectionsGauge.Inc()

	h.l.Info(ctx, "websocket connected", "conn_id", connID)

	ack := models.NewEvent(models.EventConnectionStatus, uuid.Nil, models.ConnectionStatusData{Status: "connected"})
	if err := sock.WriteJSON(ack); err != nil {
		h.l.Warn(ctx, "failed to send connection ack", "error", err.Error())
	}

	h.serve(ctx, connID, user, sock)

	if err := h.hub.Unregister(connID); err != nil && !errors.Is(err, wshub.ErrConnIsNotFound) {
		h.l.Warn(ctx, "failed to unregister connection", "error", err.Error())
	}
	metrics.WebSocketConnectionsGauge.Dec()

	h.l.Info(ctx, "websocket disconnected", "conn_id", connID)
}

// serve reads client commands until the socket errors out.
func (h *Handler) serve(ctx context.Context, connID uuid.UUID, user *models.User, sock *websocket.Conn) {
	for {
		var cmd Command
		if err := sock.ReadJSON(&cmd); err != nil {
			return
		}
		h.hub.Touch(connID)

		if err := h.handle(ctx, user, cmd); err != nil {
			ev := models.NewEvent(models.EventError, uuid.Nil, models.ErrorData{Message: err.Error()})
			if werr := sock.WriteJSON(ev); werr != nil {
				return
			}
		}
	}
}

func (h *Handler) handle(ctx context.Context, user *models.User, cmd Command) error {
	switch cmd.Kind {
	case CmdPing:
		return nil

	case CmdLocationUpdate:
		if user.Role != types.RoleDriver {
			return errors.New("only drivers send location updates")
		}
		return h.drivers.UpdateLocation(ctx, user.ID, cmd.Latitude, cmd.Longitude)

	case CmdRideResponse:
		if user.Role != types.RoleDriver {
			return errors.New("only drivers answer ride requests")
		}
		req, err := h.dispatch.Respond(ctx, cmd.RequestID, user.ID, cmd.Accepted)
		if err != nil {
			return err
		}
		if cmd.Accepted {
			if _, err := h.rides.Accept(ctx, req.RideID, user.ID); err != nil {
				return err
			}
		}
		return nil

	default:
		return errors.New("unknown command kind")
	}
}

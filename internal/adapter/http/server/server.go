package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wasselni/ridehail/config"
	"github.com/wasselni/ridehail/internal/adapter/http/handler"
	"github.com/wasselni/ridehail/internal/adapter/http/middleware"
	"github.com/wasselni/ridehail/internal/adapter/ws"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
)

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

type handlers struct {
	health       *handler.Health
	auth         *handler.Auth
	ride         *handler.Ride
	driver       *handler.Driver
	notification *handler.Notification
	rating       *handler.Rating
	payment      *handler.Payment
	ws           *ws.Handler
}

type Services struct {
	Auth         handler.AuthService
	Ride         handler.RideService
	Dispatch     handler.DispatchService
	Driver       handler.DriverService
	Notification handler.NotificationService
	Rating       handler.RatingService
	Payment      handler.PaymentService
}

func New(cfg config.ServerConfig, svcs Services, mid *middleware.Middleware, wsHandler *ws.Handler, log logger.Logger) (*API, error) {
	if svcs.Auth == nil {
		return nil, errors.New("auth service is required")
	}

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)

	api := &API{
		mux: http.NewServeMux(),
		routes: &handlers{
			health:       handler.NewHealth("ridehail", "1.0.0", log),
			auth:         handler.NewAuth(svcs.Auth, log),
			ride:         handler.NewRide(svcs.Ride, log),
			driver:       handler.NewDriver(svcs.Driver, svcs.Dispatch, svcs.Ride, log),
			notification: handler.NewNotification(svcs.Notification, log),
			rating:       handler.NewRating(svcs.Rating, log),
			payment:      handler.NewPayment(svcs.Payment, log),
			ws:           wsHandler,
		},
		m:    mid,
		addr: addr,
		log:  log,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	api.setupRoutes()

	return api, nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "HTTP server shut down")

	return nil
}

// withMiddleware applies the global middleware chain to the mux.
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Metrics(a.m.Logging(a.m.Auth(a.mux)))))
}

package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wasselni/ridehail/config"
	"github.com/wasselni/ridehail/internal/adapter/http/middleware"
	"github.com/wasselni/ridehail/internal/adapter/http/server"
	repo "github.com/wasselni/ridehail/internal/adapter/postgres"
	producer "github.com/wasselni/ridehail/internal/adapter/rabbit"
	"github.com/wasselni/ridehail/internal/adapter/redisgeo"
	wsadapter "github.com/wasselni/ridehail/internal/adapter/ws"
	"github.com/wasselni/ridehail/internal/notify"
	"github.com/wasselni/ridehail/internal/service/auth"
	"github.com/wasselni/ridehail/internal/service/dispatch"
	"github.com/wasselni/ridehail/internal/service/driver"
	"github.com/wasselni/ridehail/internal/service/pricing"
	"github.com/wasselni/ridehail/internal/service/rating"
	"github.com/wasselni/ridehail/internal/service/ride"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/postgres"
	"github.com/wasselni/ridehail/pkg/rabbit"
	"github.com/wasselni/ridehail/pkg/trm"
	"github.com/wasselni/ridehail/pkg/wshub"
)

// App wires every adapter and service together and runs the background
// loops: offer expiry, connection staleness sweeps and location history
// purging.
type App struct {
	cfg config.Config
	log logger.Logger

	postgresDB *postgres.PostgreDB
	redisDB    *redis.Client
	rabbitMQ   *rabbit.RabbitMQ
	hub        *wshub.Hub
	httpServer *server.API

	dispatchSvc *dispatch.Service
	driverSvc   *driver.Service
}

func New(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to setup database", err)
		return nil, err
	}

	redisDB := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisDB.Ping(ctx).Err(); err != nil {
		log.Error(ctx, "failed to connect to redis", err)
		return nil, err
	}

	rabbitMQ, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "failed to connect to rabbitmq", err)
		return nil, err
	}
	if err := rabbitMQ.DeclareTopicExchange(producer.RideExchange); err != nil {
		log.Error(ctx, "failed to declare ride exchange", err)
		return nil, err
	}

	// Repositories
	rideRepo := repo.NewRideRepo(postgresDB.Pool)
	requestRepo := repo.NewRequestRepo(postgresDB.Pool)
	userRepo := repo.NewUserRepo(postgresDB.Pool)
	locationRepo := repo.NewLocationRepo(postgresDB.Pool)
	notificationRepo := repo.NewNotificationRepo(postgresDB.Pool)
	paymentRepo := repo.NewPaymentRepo(postgresDB.Pool)
	ratingRepo := repo.NewRatingRepo(postgresDB.Pool)

	txManager := trm.New(postgresDB.Pool)
	geoIndex := redisgeo.New(redisDB)
	rideProducer := producer.NewRideProducer(rabbitMQ)

	// Realtime
	hub := wshub.NewHub(log)
	notifier := notify.New(hub, notificationRepo, nil, log)

	// Services
	fares := pricing.New(pricing.Rates{
		BaseFare:         cfg.Pricing.BaseFare,
		PerKm:            cfg.Pricing.PerKm,
		PerMinute:        cfg.Pricing.PerMinute,
		MinimumFare:      cfg.Pricing.MinimumFare,
		PeakMultiplier:   cfg.Pricing.PeakMultiplier,
		PeakMorningStart: 7,
		PeakMorningEnd:   9,
		PeakEveningStart: 15,
		PeakEveningEnd:   19,
	})

	dispatchSvc := dispatch.New(requestRepo, geoIndex, notifier, dispatch.Config{
		SearchRadiusKm: cfg.Dispatch.SearchRadiusKm,
		OfferTTL:       cfg.Dispatch.OfferTTL,
	}, txManager, log)

	rideSvc := ride.New(rideRepo, userRepo, paymentRepo, dispatchSvc, notifier, rideProducer, fares, txManager, log)
	driverSvc := driver.New(userRepo, locationRepo, rideRepo, geoIndex, notifier, log)
	authSvc := auth.New(userRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, log)
	ratingSvc := rating.New(ratingRepo, rideRepo, userRepo, txManager, log)

	// Transport
	mid := middleware.New(authSvc, log)
	wsHandler := wsadapter.NewHandler(hub, authSvc, driverSvc, dispatchSvc, rideSvc, log)

	httpServer, err := server.New(cfg.Server, server.Services{
		Auth:         authSvc,
		Ride:         rideSvc,
		Dispatch:     dispatchSvc,
		Driver:       driverSvc,
		Notification: notificationRepo,
		Rating:       ratingSvc,
		Payment:      paymentRepo,
	}, mid, wsHandler, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &App{
		cfg:         cfg,
		log:         log,
		postgresDB:  postgresDB,
		redisDB:     redisDB,
		rabbitMQ:    rabbitMQ,
		hub:         hub,
		httpServer:  httpServer,
		dispatchSvc: dispatchSvc,
		driverSvc:   driverSvc,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)

	a.httpServer.Run(ctx, errCh)
	go a.expireLoop(ctx)
	go a.sweepLoop(ctx)
	go a.purgeLoop(ctx)

	defer func() {
		a.close(ctx)
		a.log.Info(ctx, "application closed")
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info(ctx, "application started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

// expireLoop periodically closes ride offers past their deadline.
func (a *App) expireLoop(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "offer_expire_loop")

	ticker := time.NewTicker(a.cfg.Dispatch.ExpireEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.dispatchSvc.ExpireSweep(ctx); err != nil {
				a.log.Warn(ctx, "offer expiry sweep failed", "error", err.Error())
			}
		}
	}
}

// sweepLoop drains dead and idle websocket sessions.
func (a *App) sweepLoop(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "connection_sweep_loop")

	ticker := time.NewTicker(a.cfg.WebSocket.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.hub.SweepInactive(time.Now(), a.cfg.WebSocket.StaleAfter); n > 0 {
				a.log.Info(ctx, "swept stale websocket connections", "count", n)
			}
		}
	}
}

// purgeLoop trims old driver position history.
func (a *App) purgeLoop(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "location_purge_loop")

	ticker := time.NewTicker(a.cfg.Locations.PurgeEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.driverSvc.PurgeStaleLocations(ctx, a.cfg.Locations.Retention)
			if err != nil {
				a.log.Warn(ctx, "location purge failed", "error", err.Error())
				continue
			}
			if n > 0 {
				a.log.Debug(ctx, "purged old driver locations", "count", n)
			}
		}
	}
}

func (a *App) close(ctx context.Context) {
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "failed to gracefully close http server", "error", err.Error())
		}
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(ctx); err != nil {
			a.log.Warn(ctx, "failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if a.redisDB != nil {
		if err := a.redisDB.Close(); err != nil {
			a.log.Warn(ctx, "failed to close redis connection", "error", err.Error())
		}
	}

	if a.postgresDB != nil && a.postgresDB.Pool != nil {
		a.postgresDB.Pool.Close()
	}
}

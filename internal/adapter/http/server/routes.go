package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wasselni/ridehail/internal/domain/types"
)

func (a *API) setupRoutes() {
	// System
	a.mux.HandleFunc("GET /health", a.routes.health.HealthCheck)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	// Auth
	a.mux.HandleFunc("POST /auth/register", a.routes.auth.Register)
	a.mux.HandleFunc("POST /auth/login", a.routes.auth.Login)
	a.mux.HandleFunc("GET /auth/me", a.routes.auth.Profile)

	// Rides
	a.mux.Handle("POST /rides", a.m.RequireRoles(a.routes.ride.Create, types.RoleCustomer))
	a.mux.Handle("GET /rides/active", a.m.RequireRoles(a.routes.ride.Active, types.RoleCustomer, types.RoleDriver))
	a.mux.Handle("GET /rides/history", a.m.RequireRoles(a.routes.ride.History, types.RoleCustomer, types.RoleDriver))
	a.mux.Handle("GET /rides/{ride_id}", a.m.RequireRoles(a.routes.ride.Get, types.RoleCustomer, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/cancel", a.m.RequireRoles(a.routes.ride.Cancel, types.RoleCustomer, types.RoleDriver))

	// Ride ratings and payments
	a.mux.Handle("POST /rides/{ride_id}/rating", a.m.RequireRoles(a.routes.rating.Rate, types.RoleCustomer, types.RoleDriver))
	a.mux.Handle("GET /users/{user_id}/ratings", a.m.RequireRoles(a.routes.rating.ListForUser, types.RoleCustomer, types.RoleDriver))
	a.mux.Handle("GET /rides/{ride_id}/payment", a.m.RequireRoles(a.routes.payment.GetForRide, types.RoleCustomer))
	a.mux.Handle("POST /rides/{ride_id}/payment", a.m.RequireRoles(a.routes.payment.Pay, types.RoleCustomer))

	// Driver lifecycle
	a.mux.Handle("POST /drivers/online", a.m.RequireRoles(a.routes.driver.GoOnline, types.RoleDriver))
	a.mux.Handle("POST /drivers/offline", a.m.RequireRoles(a.routes.driver.GoOffline, types.RoleDriver))
	a.mux.Handle("POST /drivers/location", a.m.RequireRoles(a.routes.driver.UpdateLocation, types.RoleDriver))
	a.mux.Handle("GET /drivers/requests", a.m.RequireRoles(a.routes.driver.PendingRequests, types.RoleDriver))
	a.mux.Handle("POST /drivers/requests/{request_id}/respond", a.m.RequireRoles(a.routes.driver.RespondRequest, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/arrived", a.m.RequireRoles(a.routes.driver.Arrived, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/start", a.m.RequireRoles(a.routes.driver.StartTrip, types.RoleDriver))
	a.mux.Handle("POST /rides/{ride_id}/complete", a.m.RequireRoles(a.routes.driver.CompleteTrip, types.RoleDriver))

	// Notifications
	a.mux.Handle("GET /notifications", a.m.RequireRoles(a.routes.notification.List, types.RoleCustomer, types.RoleDriver))
	a.mux.Handle("POST /notifications/{notification_id}/read", a.m.RequireRoles(a.routes.notification.MarkRead, types.RoleCustomer, types.RoleDriver))

	// Realtime channel
	a.mux.HandleFunc("GET /ws", a.routes.ws.Connect)
}

package handler

import (
	"context"
	"net/http"

	"github.com/wasselni/ridehail/internal/adapter/http/handler/dto"
	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/uuid"
	"github.com/wasselni/ridehail/pkg/validator"
)

type Driver struct {
	drivers  DriverService
	dispatch DispatchService
	rides    RideService
	l        logger.Logger
}

func NewDriver(drivers DriverService, dispatch DispatchService, rides RideService, l logger.Logger) *Driver {
	return &Driver{
		drivers:  drivers,
		dispatch: dispatch,
		rides:    rides,
		l:        l,
	}
}

func (h *Driver) GoOnline(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "driver_go_online")
	user := models.UserFromContext(ctx)

	var req dto.PositionRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.drivers.GoOnline(ctx, user.ID, req.Latitude, req.Longitude); err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"status": "online"}, nil)
}

func (h *Driver) GoOffline(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "driver_go_offline")
	user := models.UserFromContext(ctx)

	if err := h.drivers.GoOffline(ctx, user.ID); err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"status": "offline"}, nil)
}

func (h *Driver) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "driver_update_location")
	user := models.UserFromContext(ctx)

	var req dto.PositionRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.drivers.UpdateLocation(ctx, user.ID, req.Latitude, req.Longitude); err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"status": "updated"}, nil)
}

// PendingRequests returns the driver's open ride offers, for clients
// reconnecting mid-broadcast.
func (h *Driver) PendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := models.UserFromContext(ctx)

	reqs, err := h.dispatch.PendingFor(ctx, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"requests": reqs}, nil)
}

// RespondRequest records the driver's answer to a ride offer. Accepting also
// claims the ride; if another driver already won, the answer is recorded but
// the claim fails with a conflict.
func (h *Driver) RespondRequest(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "respond_ride_request")
	user := models.UserFromContext(ctx)

	requestID, err := readIDParam(r, "request_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.RespondRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	answered, err := h.dispatch.Respond(ctx, requestID, user.ID, req.Accepted)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	if !req.Accepted {
		writeJSON(w, http.StatusOK, envelope{"request": answered}, nil)
		return
	}

	ride, err := h.rides.Accept(ctx, answered.RideID, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"request": answered, "ride": ride}, nil)
}

func (h *Driver) Arrived(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, "driver_arrived", h.rides.DriverArrived)
}

func (h *Driver) StartTrip(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, "start_trip", h.rides.Start)
}

func (h *Driver) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "complete_trip")
	user := models.UserFromContext(ctx)

	rideID, err := readIDParam(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.CompleteRideRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.rides.Complete(ctx, rideID, user.ID, req.DistanceKm, req.DurationMinutes)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil)
}

func (h *Driver) applyTransition(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)) {
	ctx := wrap.WithAction(r.Context(), action)
	user := models.UserFromContext(ctx)

	rideID, err := readIDParam(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := fn(ctx, rideID, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil)
}

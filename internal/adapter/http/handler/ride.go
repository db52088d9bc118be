package handler

import (
	"net/http"

	"github.com/wasselni/ridehail/internal/adapter/http/handler/dto"
	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/validator"
)

var rideSortSafelist = []string{"created_at", "-created_at", "status", "-status"}

type Ride struct {
	rides RideService
	l     logger.Logger
}

func NewRide(rides RideService, l logger.Logger) *Ride {
	return &Ride{rides: rides, l: l}
}

// Create requests a new ride for the authenticated customer.
func (h *Ride) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")
	user := models.UserFromContext(ctx)

	var req dto.CreateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.rides.Create(ctx, user.ID, req.Pickup, req.Dropoff, req.Notes)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"ride": ride}, nil)
}

func (h *Ride) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := models.UserFromContext(ctx)

	rideID, err := readIDParam(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := h.rides.Get(ctx, rideID, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil)
}

// Active returns the caller's current non-terminal ride.
func (h *Ride) Active(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := models.UserFromContext(ctx)

	ride, err := h.rides.ActiveFor(ctx, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil)
}

func (h *Ride) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := models.UserFromContext(ctx)

	filters := readFilters(r, "-created_at", rideSortSafelist)

	v := validator.New()
	if filters.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	rides, meta, err := h.rides.History(ctx, user.ID, filters)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"rides": rides, "metadata": meta}, nil)
}

func (h *Ride) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_ride")
	user := models.UserFromContext(ctx)

	rideID, err := readIDParam(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.CancelRideRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := h.rides.Cancel(ctx, rideID, user.ID, req.Reason)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil)
}

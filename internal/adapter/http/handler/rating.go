package handler

import (
	"net/http"

	"github.com/wasselni/ridehail/internal/adapter/http/handler/dto"
	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/validator"
)

var ratingSortSafelist = []string{"created_at", "-created_at"}

type Rating struct {
	ratings RatingService
	l       logger.Logger
}

func NewRating(ratings RatingService, l logger.Logger) *Rating {
	return &Rating{ratings: ratings, l: l}
}

func (h *Rating) Rate(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "rate_ride")
	user := models.UserFromContext(ctx)

	rideID, err := readIDParam(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.RateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	rating, err := h.ratings.Rate(ctx, user.ID, rideID, req.Score, req.Comment)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"rating": rating}, nil)
}

func (h *Rating) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rateeID, err := readIDParam(r, "user_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	filters := readFilters(r, "-created_at", ratingSortSafelist)

	v := validator.New()
	if filters.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ratings, meta, err := h.ratings.ListByRatee(ctx, rateeID, filters)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"ratings": ratings, "metadata": meta}, nil)
}

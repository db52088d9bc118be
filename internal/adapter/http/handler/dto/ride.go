package dto

import (
	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/validator"
)

type CreateRideRequest struct {
	Pickup  models.Location `json:"pickup"`
	Dropoff models.Location `json:"dropoff"`
	Notes   *string         `json:"notes"`
}

func (r *CreateRideRequest) Validate(v *validator.Validator) {
	validateLocation(v, "pickup", r.Pickup)
	validateLocation(v, "dropoff", r.Dropoff)
}

type CancelRideRequest struct {
	Reason string `json:"reason"`
}

type CompleteRideRequest struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

func (r *CompleteRideRequest) Validate(v *validator.Validator) {
	v.Check(r.DistanceKm >= 0, "distance_km", "must not be negative")
	v.Check(r.DistanceKm <= 1000, "distance_km", "must be a maximum of 1000")
	v.Check(r.DurationMinutes >= 0, "duration_minutes", "must not be negative")
	v.Check(r.DurationMinutes <= 24*60, "duration_minutes", "must be a maximum of one day")
}

type RespondRequest struct {
	Accepted bool `json:"accepted"`
}

func validateLocation(v *validator.Validator, field string, loc models.Location) {
	v.Check(loc.Latitude >= -90 && loc.Latitude <= 90, field+".latitude", "must be between -90 and 90")
	v.Check(loc.Longitude >= -180 && loc.Longitude <= 180, field+".longitude", "must be between -180 and 180")
}

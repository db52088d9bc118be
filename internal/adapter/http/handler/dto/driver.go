package dto

import "github.com/wasselni/ridehail/pkg/validator"

type PositionRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (r *PositionRequest) Validate(v *validator.Validator) {
	v.Check(r.Latitude >= -90 && r.Latitude <= 90, "latitude", "must be between -90 and 90")
	v.Check(r.Longitude >= -180 && r.Longitude <= 180, "longitude", "must be between -180 and 180")
}

type RateRideRequest struct {
	Score   int     `json:"score"`
	Comment *string `json:"comment"`
}

func (r *RateRideRequest) Validate(v *validator.Validator) {
	v.Check(r.Score >= 1 && r.Score <= 5, "score", "must be between 1 and 5")
	if r.Comment != nil {
		v.Check(len(*r.Comment) <= 500, "comment", "must be a maximum of 500 characters")
	}
}

type PayRequest struct {
	Method string `json:"method"`
}

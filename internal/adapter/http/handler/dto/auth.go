package dto

import (
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/validator"
)

type RegisterRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
}

func (r *RegisterRequest) Validate(v *validator.Validator) {
	v.Check(r.FullName != "", "full_name", "must be provided")
	v.Check(len(r.FullName) <= 200, "full_name", "must be a maximum of 200 characters")
	v.Check(r.Email != "", "email", "must be provided")
	v.Check(validator.Matches(r.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(len(r.Password) >= 8, "password", "must be at least 8 characters long")
	v.Check(len(r.Password) <= 72, "password", "must be a maximum of 72 characters")
	v.Check(validator.PermittedValue(types.UserRole(r.Role), types.RoleCustomer, types.RoleDriver), "role", "must be CUSTOMER or DRIVER")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate(v *validator.Validator) {
	v.Check(r.Email != "", "email", "must be provided")
	v.Check(r.Password != "", "password", "must be provided")
}

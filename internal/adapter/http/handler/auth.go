package handler

import (
	"net/http"

	"github.com/wasselni/ridehail/internal/adapter/http/handler/dto"
	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/validator"
)

type Auth struct {
	service AuthService
	l       logger.Logger
}

func NewAuth(service AuthService, l logger.Logger) *Auth {
	return &Auth{service: service, l: l}
}

func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register")

	var req dto.RegisterRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, token, err := h.service.Register(ctx, req.FullName, req.Email, req.Password, req.PhoneNumber, types.UserRole(req.Role))
	if err != nil {
		h.l.Error(ctx, "failed to register user", err)
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"user": user, "token": token}, nil)
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login")

	var req dto.LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, token, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"user": user, "token": token}, nil)
}

// Profile returns the authenticated user.
func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	user := models.UserFromContext(r.Context())
	if user == nil || user.IsAnonymous() {
		errorResponse(w, http.StatusUnauthorized, "authorization required")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"user": user}, nil)
}

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

type Payment struct {
	payments PaymentService
	l        logger.Logger
}

func NewPayment(payments PaymentService, l logger.Logger) *Payment {
	return &Payment{payments: payments, l: l}
}

func (h *Payment) GetForRide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := models.UserFromContext(ctx)

	rideID, err := readIDParam(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	payment, err := h.payments.FindByRide(ctx, rideID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}
	if payment.CustomerID != user.ID {
		errorResponse(w, http.StatusNotFound, types.ErrNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, envelope{"payment": payment}, nil)
}

// Pay settles the ride's pending payment with the chosen method.
func (h *Payment) Pay(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "pay_ride")
	user := models.UserFromContext(ctx)

	rideID, err := readIDParam(r, "ride_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	var req dto.PayRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	method := types.PaymentMethod(req.Method)
	v := validator.New()
	v.Check(validator.PermittedValue(method,
		types.PaymentCash, types.PaymentCreditCard, types.PaymentDebitCard, types.PaymentDigitalWallet),
		"method", "invalid payment method")
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	payment, err := h.payments.FindByRide(ctx, rideID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}
	if payment.CustomerID != user.ID {
		errorResponse(w, http.StatusNotFound, types.ErrNotFound.Error())
		return
	}

	if err := h.payments.SetStatus(ctx, payment.ID, types.PaymentCompleted, method); err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"status": "paid"}, nil)
}

package handler

import (
	"net/http"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/logger"
	"github.com/wasselni/ridehail/pkg/validator"
)

var notificationSortSafelist = []string{"created_at", "-created_at"}

type Notification struct {
	notifications NotificationService
	l             logger.Logger
}

func NewNotification(notifications NotificationService, l logger.Logger) *Notification {
	return &Notification{notifications: notifications, l: l}
}

func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := models.UserFromContext(ctx)

	filters := readFilters(r, "-created_at", notificationSortSafelist)

	v := validator.New()
	if filters.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	notifications, meta, err := h.notifications.ListByUser(ctx, user.ID, filters)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	unread, err := h.notifications.CountUnread(ctx, user.ID)
	if err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"notifications": notifications, "unread": unread, "metadata": meta}, nil)
}

func (h *Notification) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := models.UserFromContext(ctx)

	id, err := readIDParam(r, "notification_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	if err := h.notifications.MarkRead(ctx, id, user.ID); err != nil {
		serviceErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"status": "read"}, nil)
}

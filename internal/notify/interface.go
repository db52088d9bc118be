package notify

import (
	"context"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type NotificationRepo interface {
	Create(ctx context.Context, n *models.Notification) error
}

// PushProvider delivers a message to a user with no live connection,
// e.g. through a mobile push gateway.
type PushProvider interface {
	Deliver(ctx context.Context, userID uuid.UUID, ev models.Event) error
}

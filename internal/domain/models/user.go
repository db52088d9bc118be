package models

import (
	"context"
	"time"

	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type User struct {
	ID           uuid.UUID      `json:"id"`
	FullName     string         `json:"full_name"`
	Email        string         `json:"email"`
	PasswordHash string         `json:"-"`
	Role         types.UserRole `json:"role"`
	PhoneNumber  string         `json:"phone_number"`

	// Last known position, pushed over the realtime channel.
	CurrentLat *float64 `json:"current_lat,omitempty"`
	CurrentLng *float64 `json:"current_lng,omitempty"`

	// Driver-only fields.
	DriverStatus *types.DriverStatus `json:"driver_status,omitempty"`
	Rating       *float64            `json:"rating,omitempty"`
	TotalTrips   *int                `json:"total_trips,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// IsOnlineDriver reports whether the user is a driver currently accepting rides.
func (u *User) IsOnlineDriver() bool {
	return u.Role == types.RoleDriver &&
		u.DriverStatus != nil &&
		*u.DriverStatus == types.StatusDriverOnline
}

// AnonymousUser represents an unauthenticated caller.
var anonymousUser = &User{}

func AnonymousUser() *User {
	return anonymousUser
}

func (u *User) IsAnonymous() bool {
	return u == anonymousUser
}

type userCtxKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userCtxKey{}).(*User)
	return user
}

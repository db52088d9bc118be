package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	wrap "github.com/wasselni/ridehail/pkg/logger/wrapper"
	"github.com/wasselni/ridehail/pkg/passhash"
	"github.com/wasselni/ridehail/pkg/uuid"
)

// Service handles registration, login and token verification.
type Service struct {
	users     UserRepo
	secret    string
	accessTTL time.Duration
	l         logger.Logger

	now func() time.Time
}

func New(users UserRepo, secret string, accessTTL time.Duration, l logger.Logger) *Service {
	return &Service{
		users:     users,
		secret:    secret,
		accessTTL: accessTTL,
		l:         l,
		now:       time.Now,
	}
}

// Register creates a new account and returns it with a signed access token.
func (s *Service) Register(ctx context.Context, fullName, email, password, phone string, role types.UserRole) (*models.User, string, error) {
	ctx = wrap.WithAction(ctx, "register")

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, types.ErrUserNotFound) {
		return nil, "", wrap.Error(ctx, fmt.Errorf("failed to check email: %w", err))
	}
	if existing != nil {
		return nil, "", wrap.Error(ctx, types.ErrEmailAlreadyExists)
	}

	hash, err := passhash.HashPassword(password)
	if err != nil {
		return nil, "", wrap.Error(ctx, fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		ID:           uuid.MustNew(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		PhoneNumber:  phone,
		CreatedAt:    s.now().UTC(),
	}
	if role == types.RoleDriver {
		offline := types.StatusDriverOffline
		user.DriverStatus = &offline
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", wrap.Error(ctx, fmt.Errorf("failed to create user: %w", err))
	}

	token, err := s.signToken(user.ID, user.Role, s.now().UTC())
	if err != nil {
		return nil, "", wrap.Error(ctx, fmt.Errorf("failed to sign token: %w", err))
	}

	s.l.Info(ctx, "user registered", "role", role.String())
	return user, token, nil
}

// Login verifies the credentials and returns the user with a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	ctx = wrap.WithAction(ctx, "login")

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, "", wrap.Error(ctx, types.ErrInvalidCredentials)
		}
		return nil, "", wrap.Error(ctx, err)
	}

	ok, err := passhash.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, "", wrap.Error(ctx, types.ErrInvalidCredentials)
	}

	token, err := s.signToken(user.ID, user.Role, s.now().UTC())
	if err != nil {
		return nil, "", wrap.Error(ctx, fmt.Errorf("failed to sign token: %w", err))
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.l.Warn(ctx, "failed to record last login", "error", err.Error())
	}

	return user, token, nil
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, wrap.Error(ctx, types.ErrInvalidToken)
		}
		return nil, wrap.Error(ctx, err)
	}
	return user, nil
}

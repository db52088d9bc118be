package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wasselni/ridehail/internal/domain/models"
	"github.com/wasselni/ridehail/internal/domain/types"
	"github.com/wasselni/ridehail/pkg/logger"
	"github.com/wasselni/ridehail/pkg/uuid"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return types.ErrEmailAlreadyExists
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return types.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	return nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	svc := New(repo, "test-secret", time.Hour, logger.New("test", logger.LevelError))
	return svc, repo
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Omar Haddad", "omar@example.com", "s3cret-pass", "+962790000000", types.RoleDriver)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.PasswordHash == "s3cret-pass" {
		t.Error("password stored in plain text")
	}
	if user.DriverStatus == nil || *user.DriverStatus != types.StatusDriverOffline {
		t.Errorf("driver status = %v, want OFFLINE", user.DriverStatus)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != types.RoleDriver {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRegister_CustomerHasNoDriverStatus(t *testing.T) {
	svc, _ := newTestService()

	user, _, err := svc.Register(context.Background(), "Lina", "lina@example.com", "s3cret-pass", "", types.RoleCustomer)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.DriverStatus != nil {
		t.Errorf("driver status = %v, want nil for a customer", user.DriverStatus)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Omar", "omar@example.com", "s3cret-pass", "", types.RoleCustomer); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, _, err := svc.Register(ctx, "Other Omar", "OMAR@example.com", "other-pass", "", types.RoleCustomer)
	if !errors.Is(err, types.ErrEmailAlreadyExists) {
		t.Fatalf("want ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "Omar", "omar@example.com", "s3cret-pass", "", types.RoleCustomer)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, token, err := svc.Login(ctx, "omar@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user id = %s, want %s", user.ID, registered.ID)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if user.LastLoginAt == nil {
		t.Error("last login not recorded")
	}
}

func TestLogin_BadCredentialsIndistinguishable(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Omar", "omar@example.com", "s3cret-pass", "", types.RoleCustomer); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, wrongPass := svc.Login(ctx, "omar@example.com", "wrong-pass")
	_, _, noSuchUser := svc.Login(ctx, "ghost@example.com", "s3cret-pass")

	if !errors.Is(wrongPass, types.ErrInvalidCredentials) {
		t.Fatalf("wrong password: want ErrInvalidCredentials, got %v", wrongPass)
	}
	if !errors.Is(noSuchUser, types.ErrInvalidCredentials) {
		t.Fatalf("unknown email: want ErrInvalidCredentials, got %v", noSuchUser)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, token, err := svc.Register(ctx, "Omar", "omar@example.com", "s3cret-pass", "", types.RoleCustomer)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user id = %s, want %s", user.ID, registered.ID)
	}
}

func TestAuthenticate_Garbage(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	if !errors.Is(err, types.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "Omar", "omar@example.com", "s3cret-pass", "", types.RoleCustomer)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	other := New(repo, "different-secret", time.Hour, logger.New("test", logger.LevelError))
	if _, err := other.Authenticate(ctx, token); !errors.Is(err, types.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticate_Expired(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	_, token, err := svc.Register(ctx, "Omar", "omar@example.com", "s3cret-pass", "", types.RoleCustomer)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, types.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken for an expired token, got %v", err)
	}
}

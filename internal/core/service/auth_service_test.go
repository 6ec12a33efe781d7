package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

type stubAuthRepo struct {
	users map[string]*domain.User
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == user.Username || (user.Email != "" && u.Email == user.Email) {
			return nil, domain.ErrUserExists
		}
	}
	stored := cloneUser(user)
	if stored.ID == "" {
		stored.ID = "id-" + user.Username
	}
	r.users[stored.Username] = cloneUser(stored)
	return cloneUser(stored), nil
}

func (r *stubAuthRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

const testSecret = "secret"

func newTestAuthService(t *testing.T, repo ports.AuthRepository) *AuthService {
	t.Helper()
	tokens, err := NewTokenService(testSecret, time.Hour, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return NewAuthService(repo, tokens, zerolog.Nop())
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "pass123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user == nil {
		t.Fatalf("expected user, got nil")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("expected default role customer, got %s", user.Role)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lower-cased email, got %s", user.Email)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "", Password: "pass"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing username, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Password: ""}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing password, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Password: "pass", Role: "wrong"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad role, got %v", err)
	}
}

func TestAuthService_Register_RejectsAdminRole(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), ports.RegisterInput{Username: "mallory", Password: "pass", Role: domain.RoleAdmin})
	if !errors.Is(err, domain.ErrRoleElevation) {
		t.Fatalf("expected ErrRoleElevation, got %v", err)
	}
	if len(repo.users) != 0 {
		t.Fatalf("no user should have been stored")
	}
}

func TestAuthService_CreateUser_AllowsAdmin(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	user, err := svc.CreateUser(context.Background(), ports.RegisterInput{Username: "root", Password: "pass", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin, got %s", user.Role)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	_, _ = svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pass"})
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "bob", Password: "pass2"}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists for same username, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Username: "robert", Email: "bob@example.com", Password: "pass2"}); err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists for same email, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	if _, err := svc.CreateUser(context.Background(), ports.RegisterInput{Username: "carol", Email: "carol@example.com", Password: "s3cret", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := svc.Login(context.Background(), "", "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.User == nil || res.User.Username != "carol" {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(res.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["role"] != domain.RoleAdmin {
		t.Fatalf("expected role %s, got %v", domain.RoleAdmin, claims["role"])
	}
	if claims["user_id"] != res.User.ID {
		t.Fatalf("expected user_id %s, got %v", res.User.ID, claims["user_id"])
	}
}

func TestAuthService_Login_ByUsername(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	_, _ = svc.Register(context.Background(), ports.RegisterInput{Username: "erin", Password: "pw"})
	res, err := svc.Login(context.Background(), "erin", "", "pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Claims.Role != domain.RoleCustomer {
		t.Fatalf("expected customer role in claims, got %s", res.Claims.Role)
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	_, _ = svc.Register(context.Background(), ports.RegisterInput{Username: "dave", Email: "dave@example.com", Password: "goodpass"})

	_, wrongPassword := svc.Login(context.Background(), "", "dave@example.com", "badpass")
	_, unknownUser := svc.Login(context.Background(), "", "ghost@example.com", "badpass")

	if wrongPassword != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if unknownUser != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestAuthService_Login_MissingFields(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	if _, err := svc.Login(context.Background(), "", "", "pw"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthService_Logout_WithoutDenylist(t *testing.T) {
	svc := newTestAuthService(t, newStubAuthRepo())

	err := svc.Logout(context.Background(), &ports.Claims{TokenID: "jti", ExpiresAt: time.Now().Add(time.Hour)})
	if !errors.Is(err, domain.ErrRevocationDisabled) {
		t.Fatalf("expected ErrRevocationDisabled, got %v", err)
	}
}

func TestAuthService_EnsureAdmin_Idempotent(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(t, repo)

	if err := svc.EnsureAdmin(context.Background(), "root", "root@example.com", "pw"); err != nil {
		t.Fatalf("first EnsureAdmin: %v", err)
	}
	if err := svc.EnsureAdmin(context.Background(), "root", "root@example.com", "pw"); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if repo.users["root"].Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", repo.users["root"].Role)
	}
}

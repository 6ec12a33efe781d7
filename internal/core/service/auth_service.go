package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/inventory-api/internal/api/metrics"
	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// TokenManager is the subset of the token service used for sign-in and sign-out.
type TokenManager interface {
	ports.TokenIssuer
	ports.TokenRevoker
}

// AuthService implements registration and login.
type AuthService struct {
	repo   ports.AuthRepository
	tokens TokenManager
	log    zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, tokens TokenManager, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, log: log}
}

// Register creates a customer account. Asking for the admin role here is
// rejected; admins are created through CreateUser by another admin.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}
	if in.Role == domain.RoleAdmin {
		return nil, domain.ErrRoleElevation
	}
	return s.create(ctx, in)
}

// CreateUser creates an account with any valid role.
func (s *AuthService) CreateUser(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}
	return s.create(ctx, in)
}

func (s *AuthService) create(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.Invalid("Username and password are required.")
	}
	if !domain.ValidRole(in.Role) {
		return nil, domain.Invalid("Role must be one of: customer, admin.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Str("role", created.Role).Msg("user registered")
	return created, nil
}

// Login authenticates by email when given, otherwise by username. Unknown
// identifiers and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, email, password string) (*ports.LoginResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if (username == "" && email == "") || password == "" {
		return nil, domain.Invalid("Please provide a username or email and a password.")
	}

	var (
		user *domain.User
		err  error
	)
	if email != "" {
		user, err = s.repo.FindByEmail(ctx, email)
	} else {
		user, err = s.repo.FindByUsername(ctx, username)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			compareDummyHash(password)
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &ports.LoginResult{Token: token, Claims: claims, User: user}, nil
}

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *ports.Claims) error {
	return s.tokens.Revoke(ctx, claims)
}

// EnsureAdmin creates the bootstrap admin account unless the username or
// email is already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	_, err := s.CreateUser(ctx, ports.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrUserExists) {
		s.log.Debug().Str("username", username).Msg("bootstrap admin already present")
		return nil
	}
	return err
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummyHash spends the same bcrypt work as a real comparison so that
// unknown identifiers are not distinguishable by response time.
func compareDummyHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sweetshop-placeholder"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string // empty means domain.RoleCustomer
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token  string
	Claims *Claims
	User   *domain.User
}

type AuthService interface {
	// Register is the public sign-up path; it never grants domain.RoleAdmin.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// CreateUser is the admin path and may assign any valid role.
	CreateUser(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login authenticates by email when non-empty, otherwise by username.
	Login(ctx context.Context, username, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *Claims) error
}

package ports

import (
	"context"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// AuthRepository defines the interface for user credential persistence.
// Create must return domain.ErrUserExists when the username or email is taken.
type AuthRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

package ports

import (
	"context"
	"time"

	"github.com/sweetshop/inventory-api/internal/core/domain"
)

// Claims is the decoded identity carried by an access token.
type Claims struct {
	TokenID   string    `json:"jti"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenIssuer signs new access tokens.
type TokenIssuer interface {
	Issue(user *domain.User) (string, *Claims, error)
}

// TokenVerifier validates a presented token. Any failure is domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// TokenRevoker invalidates a token before its expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, claims *Claims) error
}

// TokenDenylist stores revoked token ids until they would have expired anyway.
type TokenDenylist interface {
	Add(ctx context.Context, tokenID string, ttl time.Duration) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}

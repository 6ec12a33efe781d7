package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

const defaultTokenTTL = time.Hour

// tokenClaims is the JWT payload. The registered claims carry jti, sub, iat and exp.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
}

// TokenService issues and verifies HS256 access tokens. Verification is
// stateless unless a denylist is configured, in which case revoked token ids
// are rejected until they expire.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	denylist ports.TokenDenylist
	log      zerolog.Logger
	now      func() time.Time
}

// NewTokenService returns a TokenService. denylist may be nil.
func NewTokenService(secret string, ttl time.Duration, denylist ports.TokenDenylist, log zerolog.Logger) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: empty signing secret")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{
		secret:   []byte(secret),
		ttl:      ttl,
		denylist: denylist,
		log:      log,
		now:      time.Now,
	}, nil
}

// Issue signs a token for user that expires after the configured TTL.
func (s *TokenService) Issue(user *domain.User) (string, *ports.Claims, error) {
	now := s.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, toPortClaims(&claims), nil
}

// Verify checks the signature, algorithm and expiry of raw.
func (s *TokenService) Verify(ctx context.Context, raw string) (*ports.Claims, error) {
	var claims tokenClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.UserID == "" || !domain.ValidRole(claims.Role) {
		return nil, domain.ErrInvalidToken
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.Contains(ctx, claims.ID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("jti", claims.ID).Msg("denylist lookup failed, accepting token")
		case revoked:
			return nil, fmt.Errorf("%w: revoked", domain.ErrInvalidToken)
		}
	}

	return toPortClaims(&claims), nil
}

// Revoke denylists the token until its natural expiry.
func (s *TokenService) Revoke(ctx context.Context, claims *ports.Claims) error {
	if s.denylist == nil {
		return domain.ErrRevocationDisabled
	}
	if claims == nil || claims.TokenID == "" {
		return domain.ErrInvalidToken
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Add(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func toPortClaims(c *tokenClaims) *ports.Claims {
	out := &ports.Claims{
		TokenID:  c.ID,
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// TokenDenylist stores revoked token ids in Redis.
// Key format: revoked:<jti>, expiring when the token would have.
type TokenDenylist struct {
	client redis.UniversalClient
}

// NewTokenDenylist creates a TokenDenylist wrapping the given Redis client.
func NewTokenDenylist(client redis.UniversalClient) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Add marks tokenID as revoked for ttl. A non-positive ttl is a no-op since
// the token has already expired.
func (d *TokenDenylist) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist add: %w", err)
	}
	return nil
}

// Contains reports whether tokenID has been revoked.
func (d *TokenDenylist) Contains(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

func (d *TokenDenylist) key(tokenID string) string {
	return revokedPrefix + tokenID
}

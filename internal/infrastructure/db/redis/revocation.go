package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList stores dead session tokens in Redis until their natural
// expiry. Key format: revoked:<jti>
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList creates a RevocationList wrapping the given Redis client.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks the token key dead for ttl (the token's remaining lifetime).
func (r *RevocationList) Revoke(ctx context.Context, key string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token key has been revoked.
func (r *RevocationList) IsRevoked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *RevocationList) key(k string) string {
	return "revoked:" + k
}

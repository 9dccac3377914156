package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "auth:denylist:"

// DenylistRepository revokes session tokens ahead of their natural expiry.
// Entries live in Redis with a TTL equal to the token's remaining lifetime,
// so the denylist never outgrows the set of still-valid tokens.
type DenylistRepository interface {
	Add(ctx context.Context, tokenID string, ttl time.Duration) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}

type denylistRepository struct {
	client *redis.Client
}

// NewDenylistRepository returns a Redis-backed implementation.
func NewDenylistRepository(client *redis.Client) DenylistRepository {
	return &denylistRepository{client: client}
}

func (r *denylistRepository) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired; nothing to revoke.
		return nil
	}
	return r.client.Set(ctx, denylistKeyPrefix+tokenID, "1", ttl).Err()
}

func (r *denylistRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

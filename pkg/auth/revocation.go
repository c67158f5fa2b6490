package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocations keeps revoked token ids as expiring keys under prefix.
type RedisRevocations struct {
	client redis.Cmdable
	prefix string
}

func NewRedisRevocations(client redis.Cmdable, prefix string) *RedisRevocations {
	return &RedisRevocations{client: client, prefix: prefix}
}

func (r *RedisRevocations) key(tokenID string) string {
	return r.prefix + ":" + tokenID
}

// Revoke marks tokenID revoked for ttl, normally the token's remaining lifetime.
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(tokenID), 1, ttl).Err()
}

// IsRevoked implements RevocationChecker.
func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

// minTTL keeps entries for tokens that are already at (or past) their natural
// expiry alive just long enough to close the race with in-flight checks.
const minTTL = time.Second

// Registry is the shared set of refresh-token ids that must no longer be
// honored. It is backed by Redis so that every server instance observes the
// same revocation state; entries expire with the token's remaining lifetime
// to bound storage.
type Registry struct {
	rdb *redis.Client
}

func NewRegistry(rdb *redis.Client) *Registry {
	return &Registry{rdb: rdb}
}

func key(jti string) string {
	return keyPrefix + jti
}

// Revoke marks jti as unusable for ttl. It reports whether this call created
// the entry: under two concurrent revocations of the same jti exactly one
// caller sees true. Revoking an already-revoked id is a no-op.
func (r *Registry) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl < minTTL {
		ttl = minTTL
	}
	created, err := r.rdb.SetNX(ctx, key(jti), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: set %q: %w", jti, err)
	}
	return created, nil
}

// IsRevoked reports whether jti has been revoked and not yet expired out.
func (r *Registry) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: lookup %q: %w", jti, err)
	}
	return n > 0, nil
}

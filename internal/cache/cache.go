package cache

import (
	"context"
	"time"
)

// Store is a TTL key/value cache holding JSON-encodable values.
// Get reports false on a miss or an expired entry.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedupStore backs the in-flight dedup lock with Redis SET NX EX.
// A single atomic op rather than a held lock, so admission never pins
// state across a slow DB write.
type RedisDedupStore struct {
	client *redis.Client
}

// NewRedisDedupStore creates the dedup store
func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{client: client}
}

// AcquireInFlight atomically sets the key with a TTL if absent
func (s *RedisDedupStore) AcquireInFlight(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseInFlight deletes the key
func (s *RedisDedupStore) ReleaseInFlight(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

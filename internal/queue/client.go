// Package queue implements the durable work queue and in-flight dedup
// store over Redis.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyRedisURL is returned when the Redis URL is not configured
var ErrEmptyRedisURL = errors.New("redis url is required")

const connectionTimeout = 5 * time.Second

// NewClient creates a Redis client from a REDIS_URL-style connection string
// and verifies it with a bounded ping.
func NewClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, ErrEmptyRedisURL
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

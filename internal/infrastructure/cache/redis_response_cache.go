package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoredResponse is a cached HTTP response body for idempotent replay
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// RedisResponseCache stores response snapshots keyed by idempotency
// key so retried requests can be answered without re-executing
type RedisResponseCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisResponseCache creates a response cache on an existing client
func NewRedisResponseCache(client *redis.Client, keyPrefix string) *RedisResponseCache {
	if keyPrefix == "" {
		keyPrefix = "idempotency:response:"
	}
	return &RedisResponseCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Save stores a response snapshot with a TTL
func (c *RedisResponseCache) Save(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal stored response: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store response: %w", err)
	}
	return nil
}

// Get returns the stored response, or nil when none exists
func (c *RedisResponseCache) Get(ctx context.Context, key string) (*StoredResponse, error) {
	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load stored response: %w", err)
	}
	var resp StoredResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored response: %w", err)
	}
	return &resp, nil
}

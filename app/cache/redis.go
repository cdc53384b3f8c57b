// Package cache is the optional Redis-backed result cache wrapping the
// aggregation call. It is an external collaborator: the pipeline itself
// stays cache-free, and disabling Redis only costs latency.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/explorenyc/eventcomb/app/events"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// ResultKey derives a stable cache key from the full query shape. Two
// requests with identical profile, window and paging share one entry.
func ResultKey(profile events.Profile, window events.TimeWindow, page, pageSize int) string {
	payload, _ := json.Marshal(struct {
		Profile  events.Profile
		From     time.Time
		To       time.Time
		Page     int
		PageSize int
	}{profile, window.From.UTC(), window.To.UTC(), page, pageSize})

	hash := sha256.Sum256(payload)
	return fmt.Sprintf("discover:%x", hash[:8])
}

// GetResult returns the cached response body for a key, with a hit flag.
func (c *Cache) GetResult(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, true, nil
}

// SetResult stores a serialized response body under the key.
func (c *Cache) SetResult(ctx context.Context, key string, body []byte) error {
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

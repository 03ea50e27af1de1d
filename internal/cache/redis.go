// Package cache keeps short-lived shared state in Redis: the classification
// nav list and failed two-factor attempt counters. Every method degrades to
// a miss or a no-op when Redis is unavailable.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/config"
	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	ClassificationsKey = "nav:classifications"
	attemptsKeyPrefix  = "attempts:"

	// NavTTL bounds how stale the nav can be if an invalidation is missed.
	NavTTL = 5 * time.Minute
)

type Cache struct {
	client *redis.Client
}

// Connect opens a Redis client and pings it. On failure the client is
// closed and the error returned so the caller can run without a cache.
func Connect(cfg *config.Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	log.Printf("[Cache] Connected to Redis at %s", cfg.Redis.Addr)
	return &Cache{client: client}, nil
}

// Client returns the underlying client, nil when disconnected.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsHealthy returns true if Redis connection is working
func (c *Cache) IsHealthy(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

func (c *Cache) GetClassifications(ctx context.Context) ([]models.Classification, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, ClassificationsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var classes []models.Classification
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, false
	}
	return classes, true
}

func (c *Cache) SetClassifications(ctx context.Context, classes []models.Classification) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(classes)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, ClassificationsKey, data, NavTTL).Err(); err != nil {
		log.Printf("[Cache] set %s: %v", ClassificationsKey, err)
	}
}

func (c *Cache) InvalidateClassifications(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, ClassificationsKey)
}

// AttemptsKey namespaces a limiter key.
func AttemptsKey(key string) string {
	return attemptsKeyPrefix + key
}

// Failures returns the failed attempts recorded for key in the current window.
func (c *Cache) Failures(ctx context.Context, key string) (int, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	n, err := c.client.Get(ctx, AttemptsKey(key)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// RecordFailure counts a failure. The window starts at the first failure.
func (c *Cache) RecordFailure(ctx context.Context, key string, window time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	k := AttemptsKey(key)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *Cache) Reset(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, AttemptsKey(key)).Err()
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses redisURL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// DestinationCache caches organization payout routes. A nil
// *DestinationCache, or one without a client, misses on every read.
type DestinationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDestinationCache(client *redis.Client, ttl time.Duration) *DestinationCache {
	return &DestinationCache{client: client, ttl: ttl}
}

func (c *DestinationCache) key(orgID uuid.UUID) string {
	return fmt.Sprintf("payout:destination:%s", orgID)
}

// Get returns the cached route for orgID and whether it was found.
func (c *DestinationCache) Get(ctx context.Context, orgID uuid.UUID) (models.PayoutRoute, bool, error) {
	if c == nil || c.client == nil {
		return models.PayoutRoute{}, false, nil
	}
	data, err := c.client.Get(ctx, c.key(orgID)).Bytes()
	if err == redis.Nil {
		return models.PayoutRoute{}, false, nil
	}
	if err != nil {
		return models.PayoutRoute{}, false, err
	}
	var route models.PayoutRoute
	if err := json.Unmarshal(data, &route); err != nil {
		return models.PayoutRoute{}, false, err
	}
	return route, route.Destination != "", nil
}

// Set stores route. Routes without a destination are never cached so a
// freshly onboarded organization is picked up immediately.
func (c *DestinationCache) Set(ctx context.Context, orgID uuid.UUID, route models.PayoutRoute) error {
	if c == nil || c.client == nil || route.Destination == "" {
		return nil
	}
	data, err := json.Marshal(route)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(orgID), data, c.ttl).Err()
}

func (c *DestinationCache) Invalidate(ctx context.Context, orgID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.key(orgID)).Err()
}

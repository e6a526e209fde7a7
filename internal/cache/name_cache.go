package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// NameCache keeps user display names for the creator line of catalog cards.
type NameCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewNameCache(client *redisv9.Client, ttl time.Duration) *NameCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &NameCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *NameCache) GetName(ctx context.Context, userID uint) (string, bool, error) {
	name, err := c.client.Get(ctx, c.nameKey(userID)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get user name failed: %w", err)
	}
	return name, true, nil
}

func (c *NameCache) SetName(ctx context.Context, userID uint, name string) error {
	if err := c.client.Set(ctx, c.nameKey(userID), name, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user name failed: %w", err)
	}
	return nil
}

func (c *NameCache) DeleteName(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.nameKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete user name failed: %w", err)
	}
	return nil
}

func (c *NameCache) nameKey(userID uint) string {
	return fmt.Sprintf("catalog:user:name:%d", userID)
}

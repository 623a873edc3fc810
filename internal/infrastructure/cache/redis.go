package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"StoryPress/internal/config"
	"StoryPress/internal/ports"
)

// RedisInvalidator drops cached presentation views by deleting their keys.
type RedisInvalidator struct {
	client *redis.Client
}

var _ ports.ViewInvalidator = (*RedisInvalidator)(nil)

// NewRedisInvalidator connects a client from configuration.
func NewRedisInvalidator(cfg config.RedisConfig) *RedisInvalidator {
	return &RedisInvalidator{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Invalidate deletes the given view keys.
func (r *RedisInvalidator) Invalidate(ctx context.Context, views ...string) error {
	if len(views) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, views...).Err(); err != nil {
		return fmt.Errorf("invalidate views %v: %w", views, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}

package repository

import (
	"context"
	"time"

	"postovik/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping проверяет доступность Redis.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// RedisSeenCache — быстрый кэш идентификаторов уже доставленных постов.
// Кэш только ускоряет фильтрацию: промах или ошибка Redis означает
// обычный поход в реестр, на корректность дедупликации не влияет.
type RedisSeenCache struct {
	client *redis.Client
	ttl    time.Duration
}

const seenKey = "postovik:seen"

func NewRedisSeenCache(client *redis.Client, ttl time.Duration) *RedisSeenCache {
	return &RedisSeenCache{client: client, ttl: ttl}
}

func (c *RedisSeenCache) Seen(ctx context.Context, postID string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	return c.client.SIsMember(ctx, seenKey, postID).Result()
}

func (c *RedisSeenCache) Remember(ctx context.Context, postID string) error {
	if c.client == nil {
		return nil
	}

	pipe := c.client.TxPipeline()
	pipe.SAdd(ctx, seenKey, postID)
	if c.ttl > 0 {
		pipe.Expire(ctx, seenKey, c.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zolver/internal/config"
	"zolver/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisScheduleCache is the primary cache: projected schedules and API
// rate-limit counters, keyed per professional / API client.
type RedisScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisScheduleCache(client *redis.Client, ttl time.Duration) *RedisScheduleCache {
	return &RedisScheduleCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisScheduleCache) GetSchedule(ctx context.Context, professionalID string) ([]models.CalendarEvent, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	key := scheduleKey(professionalID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get schedule from redis: %w", err)
	}

	var events []models.CalendarEvent
	if err := json.Unmarshal([]byte(val), &events); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}

	return events, true, nil
}

func (r *RedisScheduleCache) SetSchedule(ctx context.Context, professionalID string, events []models.CalendarEvent) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}

	if err := r.client.Set(ctx, scheduleKey(professionalID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set schedule in redis: %w", err)
	}

	return nil
}

func (r *RedisScheduleCache) InvalidateSchedule(ctx context.Context, professionalID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, scheduleKey(professionalID)).Err(); err != nil {
		return fmt.Errorf("failed to delete schedule from redis: %w", err)
	}
	return nil
}

func (r *RedisScheduleCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	counterKey := fmt.Sprintf("rate_limit:%s", key)
	count, err := r.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, counterKey, window)
	}

	return count <= int64(limit), nil
}

func scheduleKey(professionalID string) string {
	return fmt.Sprintf("schedule:%s", professionalID)
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"cancelsaga/internal/config"
	"cancelsaga/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RedisOutcomeRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisOutcomeRepository(client *redis.Client, ttl time.Duration) *RedisOutcomeRepository {
	return &RedisOutcomeRepository{
		client: client,
		ttl:    ttl,
	}
}

func outcomeKey(bookingID int64) string {
	return fmt.Sprintf("cancellation:%d", bookingID)
}

func (r *RedisOutcomeRepository) GetOutcome(ctx context.Context, bookingID int64) (*models.CancellationResult, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, outcomeKey(bookingID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outcome from redis: %w", err)
	}

	var result models.CancellationResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
	}

	return &result, nil
}

func (r *RedisOutcomeRepository) SaveOutcome(ctx context.Context, result *models.CancellationResult) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	if err := r.client.Set(ctx, outcomeKey(result.BookingID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set outcome in redis: %w", err)
	}

	return nil
}

func (r *RedisOutcomeRepository) CheckRateLimit(ctx context.Context, requesterID string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := "rate_limit:cancel:" + requesterID
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfg "recipeserv/src/configuration"
	"recipeserv/src/logging"
)

const tokenKeyPrefix = "token:"

// RedisTokenStore keeps one key per issued token, expiring with the token itself.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(ctx context.Context, config cfg.RedisProperties) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}
	logging.Info().Str("addr", config.Addr).Msg("redis connection successfully opened")
	return &RedisTokenStore{client: client}, nil
}

func (r *RedisTokenStore) Issue(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token %s already expired", jti)
	}
	if err := r.client.Set(ctx, tokenKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Revoke(ctx context.Context, jti string) error {
	if err := r.client.Del(ctx, tokenKeyPrefix+jti).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisTokenStore) Active(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, tokenKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("lookup token: %w", err)
	}
	return n == 1, nil
}

func (r *RedisTokenStore) Close() error {
	return r.client.Close()
}

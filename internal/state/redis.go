package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/angeloszaimis/vault-environment/internal/environment"
)

const defaultKeyPrefix = "environment"

// RedisStore keeps settings in Redis:
//   - {prefix}:active_user          active user id
//   - {prefix}:pre_auth             pre-auth environment (JSON)
//   - {prefix}:account:{id}:urls    account environment (JSON)
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisStore) ActiveUserID(ctx context.Context) (string, error) {
	userID, err := r.rdb.Get(ctx, r.activeUserKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get active user: %w", err)
	}
	return userID, nil
}

func (r *RedisStore) EnvironmentURLs(ctx context.Context, userID string) (environment.URLData, bool, error) {
	return r.getURLs(ctx, r.accountKey(userID))
}

func (r *RedisStore) PreAuthURLs(ctx context.Context) (environment.URLData, bool, error) {
	return r.getURLs(ctx, r.preAuthKey())
}

func (r *RedisStore) SetPreAuthURLs(ctx context.Context, urls environment.URLData) error {
	return r.setURLs(ctx, r.preAuthKey(), urls)
}

func (r *RedisStore) SetActiveAccount(ctx context.Context, userID string, urls environment.URLData) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("marshal account environment: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.accountKey(userID), data, 0)
		pipe.Set(ctx, r.activeUserKey(), userID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set active account: %w", err)
	}
	return nil
}

func (r *RedisStore) SignOut(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.activeUserKey()).Err(); err != nil {
		return fmt.Errorf("clear active user: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

func (r *RedisStore) getURLs(ctx context.Context, key string) (environment.URLData, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return environment.URLData{}, false, nil
	}
	if err != nil {
		return environment.URLData{}, false, fmt.Errorf("get %s: %w", key, err)
	}

	var urls environment.URLData
	if err := json.Unmarshal(data, &urls); err != nil {
		return environment.URLData{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return urls, true, nil
}

func (r *RedisStore) setURLs(ctx context.Context, key string, urls environment.URLData) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) activeUserKey() string {
	return r.prefix + ":active_user"
}

func (r *RedisStore) preAuthKey() string {
	return r.prefix + ":pre_auth"
}

func (r *RedisStore) accountKey(userID string) string {
	return r.prefix + ":account:" + userID + ":urls"
}

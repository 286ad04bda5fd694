package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"corporate-pulse/pkg/common"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so several dashboard replicas can serve one visitor.
type RedisStore struct {
	client  redis.Cmdable
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.Cmdable, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	raw, err := r.client.Get(ctx, fmt.Sprintf(common.RedisKeySession, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	state.ID = id
	return &state, nil
}

func (r *RedisStore) Save(ctx context.Context, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, fmt.Sprintf(common.RedisKeySession, state.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Acquire(ctx context.Context, id string) error {
	ok, err := r.client.SetNX(ctx, fmt.Sprintf(common.RedisKeySessionLock, id), 1, r.lockTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !ok {
		return ErrBusy
	}
	return nil
}

func (r *RedisStore) Release(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, fmt.Sprintf(common.RedisKeySessionLock, id)).Err(); err != nil {
		return fmt.Errorf("failed to release session lock: %w", err)
	}
	return nil
}

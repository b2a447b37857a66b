package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "assessment:wizard:"

// RedisStore keeps sessions as JSON values with a sliding TTL, so API
// replicas share wizard instances.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	b, err := encode(s)
	if err != nil {
		return err
	}
	ok, err := r.rdb.SetNX(ctx, key(s.ID), b, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis create session %s: %w", s.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrExists, s.ID)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	b, err := r.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	return decode(b)
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	b, err := encode(s)
	if err != nil {
		return err
	}
	ok, err := r.rdb.SetXX(ctx, key(s.ID), b, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis save session %s: %w", s.ID, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := r.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis delete session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

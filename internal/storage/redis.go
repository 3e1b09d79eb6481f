package storage

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const contextKey = "lora:dev:ctx"

// RedisStore persists the context blob in Redis under a single key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new RedisStore for the given URL.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url error")
	}
	return &RedisStore{
		client: redis.NewClient(opts),
	}, nil
}

// Restore implements the Store interface.
func (s *RedisStore) Restore() ([]byte, error) {
	b, err := s.client.Get(context.Background(), contextKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get context error")
	}
	return b, nil
}

// Save implements the Store interface.
func (s *RedisStore) Save(b []byte) error {
	if err := s.client.Set(context.Background(), contextKey, b, 0).Err(); err != nil {
		return errors.Wrap(err, "set context error")
	}
	return nil
}

// Close implements the Store interface.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

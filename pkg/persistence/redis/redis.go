// Package redis provides a Redis-backed implementation of the persistence
// store for deployments where recordings and schedules must survive the
// process and be shared between instances.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/persistence"
)

const keyPrefix = "autoflow:"

// Store implements persistence.Store on top of a Redis client.
type Store struct {
	client *goredis.Client
}

// NewStore creates a Redis store from a connection URL
// (redis://host:port/db).
func NewStore(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &Store{client: goredis.NewClient(opts)}, nil
}

func (s *Store) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return persistence.NewStoreError("put", key, err)
	}

	if err := s.client.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		return persistence.NewStoreError("put", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string, out any) error {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return persistence.NewStoreError("get", key, persistence.ErrKeyNotFound)
		}

		return persistence.NewStoreError("get", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return persistence.NewStoreError("get", key, err)
	}

	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)

	for {
		batch, next, err := s.client.Scan(ctx, cursor, keyPrefix+prefix+"*", 100).Result()
		if err != nil {
			return nil, persistence.NewStoreError("list", prefix, err)
		}

		for _, key := range batch {
			keys = append(keys, strings.TrimPrefix(key, keyPrefix))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return persistence.NewStoreError("delete", key, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}

package storage

import (
	"context"
	"fmt"
	"strings"

	appstorage "photowall/internal/storage"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "photowall:"

// Store реализует appstorage.PersistentStore поверх redis
type Store struct {
	client *Client
}

func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", appstorage.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", appstorage.ErrStoreUnavailable, err)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, keyPrefix+key, value, 0).Err()
	if err == nil {
		return nil
	}
	// redis с политикой noeviction отвечает OOM при достижении maxmemory
	if strings.Contains(err.Error(), "OOM") {
		return appstorage.ErrCapacityExceeded
	}
	return fmt.Errorf("%w: %v", appstorage.ErrStoreUnavailable, err)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", appstorage.ErrStoreUnavailable, err)
	}
	return nil
}

package cart

import (
	"context"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/storefront-cart/pkg/redis"
)

// RedisStorage persists snapshots under sf:cart:<session> with a sliding TTL.
type RedisStorage struct {
	client pkgredis.CartStore
	ttl    time.Duration
}

// NewRedisStorage stores snapshots under the cart key with the given TTL.
func NewRedisStorage(client pkgredis.CartStore, ttl time.Duration) (*RedisStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis cart store required")
	}
	return &RedisStorage{client: client, ttl: ttl}, nil
}

func (s *RedisStorage) Read(ctx context.Context, sessionID string) ([]byte, error) {
	payload, err := s.client.GetBytes(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (s *RedisStorage) Write(ctx context.Context, sessionID string, payload []byte) error {
	return s.client.Set(ctx, s.client.CartKey(sessionID), payload, s.ttl)
}

func (s *RedisStorage) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.client.CartKey(sessionID))
}

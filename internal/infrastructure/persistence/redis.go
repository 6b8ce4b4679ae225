package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/domain/cart"
)

// RedisStore keeps the cart snapshot under a single Redis key.
// A zero TTL keeps the snapshot until it is overwritten.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, key string, ttl time.Duration, logger logrus.FieldLogger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("cart:snapshot:%s", key),
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisStore) Save(ctx context.Context, c cart.Cart) error {
	data, err := encode(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) cart.Cart {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.Cart{}
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("failed to read cart snapshot")
		return cart.Cart{}
	}

	c, err := decode(data)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("discarding corrupt cart snapshot")
		return cart.Cart{}
	}
	return c
}

package remotecart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Repository stores session carts
type Repository interface {
	// Get returns the session cart, or a new empty one when none exists
	Get(ctx context.Context, sessionID string) (*SessionCart, error)
	Save(ctx context.Context, c *SessionCart) error
	Delete(ctx context.Context, sessionID string) error
}

func newSessionCart(sessionID string, ttl time.Duration) *SessionCart {
	now := time.Now().UTC()
	return &SessionCart{
		SessionID: sessionID,
		Lines:     []Line{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// RedisRepository keeps each session cart as JSON under cart:session:<id>
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed repository
func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (r *RedisRepository) Get(ctx context.Context, sessionID string) (*SessionCart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return newSessionCart(sessionID, r.ttl), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session cart: %w", err)
	}

	var sc SessionCart
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to decode session cart: %w", err)
	}
	return &sc, nil
}

func (r *RedisRepository) Save(ctx context.Context, c *SessionCart) error {
	c.ExpiresAt = time.Now().UTC().Add(r.ttl)
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cartKey(c.SessionID), data, r.ttl).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKey(sessionID)).Err()
}

// MemoryRepository is used for tests and local runs without Redis
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]SessionCart
	ttl   time.Duration
}

func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]SessionCart), ttl: ttl}
}

func (r *MemoryRepository) Get(ctx context.Context, sessionID string) (*SessionCart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sc, ok := r.carts[sessionID]
	if !ok || time.Now().UTC().After(sc.ExpiresAt) {
		return newSessionCart(sessionID, r.ttl), nil
	}
	sc.Lines = append([]Line(nil), sc.Lines...)
	return &sc, nil
}

func (r *MemoryRepository) Save(ctx context.Context, c *SessionCart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *c
	stored.ExpiresAt = time.Now().UTC().Add(r.ttl)
	stored.Lines = append([]Line(nil), c.Lines...)
	r.carts[c.SessionID] = stored
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, sessionID)
	return nil
}

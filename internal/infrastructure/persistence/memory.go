package persistence

import (
	"context"
	"sync"

	"github.com/your-org/cart-sync/internal/domain/cart"
)

// MemoryStore keeps the snapshot for the life of the process only
type MemoryStore struct {
	mu   sync.RWMutex
	cart cart.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cart: cart.Cart{}}
}

func (s *MemoryStore) Save(ctx context.Context, c cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = c.Clone()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) cart.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

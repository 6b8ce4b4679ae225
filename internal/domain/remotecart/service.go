// internal/domain/remotecart/service.go
package remotecart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cart-sync/internal/domain/cart"
	"github.com/your-org/cart-sync/internal/domain/catalog"
)

var (
	ErrSessionRequired   = errors.New("session ID required")
	ErrItemNotFound      = errors.New("item not found in cart")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
)

// Service handles the authoritative cart business logic
type Service struct {
	repo    Repository
	catalog catalog.Repository
	logger  logrus.FieldLogger

	// serializes read-modify-write cycles on session carts
	mu sync.Mutex
}

// NewService creates a new cart service
func NewService(repo Repository, products catalog.Repository, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:    repo,
		catalog: products,
		logger:  logger,
	}
}

// GetCart retrieves the session cart with product details
func (s *Service) GetCart(ctx context.Context, sessionID string) (cart.Cart, error) {
	sc, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sc), nil
}

// AddItem adds one unit of a product. A product already in the cart has its
// line incremented instead of getting a second line.
func (s *Service) AddItem(ctx context.Context, sessionID, productID string) (cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prod, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	sc, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if i := sc.findProduct(productID); i >= 0 {
		newQuantity := sc.Lines[i].Quantity + 1
		if prod.Stock < newQuantity {
			return nil, fmt.Errorf("%w. Available: %d", ErrInsufficientStock, prod.Stock)
		}
		sc.Lines[i].Quantity = newQuantity
	} else {
		if prod.Stock < 1 {
			return nil, fmt.Errorf("%w. Available: %d", ErrInsufficientStock, prod.Stock)
		}
		sc.Lines = append(sc.Lines, Line{
			ID:        uuid.NewString(),
			ProductID: productID,
			Quantity:  1,
			Status:    cart.StatusPending,
			AddedAt:   time.Now().UTC(),
		})
	}

	if err := s.save(ctx, sc); err != nil {
		return nil, err
	}
	return s.view(ctx, sc), nil
}

// UpdateQuantity sets the quantity of a line after checking stock
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	i := sc.find(itemID)
	if i < 0 {
		return ErrItemNotFound
	}

	prod, err := s.catalog.Get(ctx, sc.Lines[i].ProductID)
	if err != nil {
		return err
	}
	if prod.Stock < quantity {
		return fmt.Errorf("%w. Available: %d", ErrInsufficientStock, prod.Stock)
	}

	sc.Lines[i].Quantity = quantity
	return s.save(ctx, sc)
}

// RemoveItem deletes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	i := sc.find(itemID)
	if i < 0 {
		return ErrItemNotFound
	}

	sc.Lines = append(sc.Lines[:i], sc.Lines[i+1:]...)
	return s.save(ctx, sc)
}

// ConfirmPickup marks a line as confirmed for pickup
func (s *Service) ConfirmPickup(ctx context.Context, sessionID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	i := sc.find(itemID)
	if i < 0 {
		return ErrItemNotFound
	}

	sc.Lines[i].Status = cart.StatusConfirmed
	return s.save(ctx, sc)
}

// ClearCart removes all lines from the session cart
func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	return s.repo.Delete(ctx, sessionID)
}

func (s *Service) load(ctx context.Context, sessionID string) (*SessionCart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionRequired
	}
	return s.repo.Get(ctx, sessionID)
}

func (s *Service) save(ctx context.Context, sc *SessionCart) error {
	sc.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, sc); err != nil {
		return fmt.Errorf("failed to save session cart: %w", err)
	}
	return nil
}

// view joins stored lines with current catalog data. Lines whose product has
// left the catalog are skipped.
func (s *Service) view(ctx context.Context, sc *SessionCart) cart.Cart {
	out := make(cart.Cart, 0, len(sc.Lines))
	for _, line := range sc.Lines {
		prod, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			s.logger.WithError(err).WithField("product_id", line.ProductID).Warn("skipping cart line without catalog product")
			continue
		}
		out = append(out, cart.CartItem{
			ID:       line.ID,
			Product:  prod.CartSnapshot(),
			Quantity: line.Quantity,
			Status:   line.Status,
		})
	}
	return out
}

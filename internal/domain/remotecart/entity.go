// internal/domain/remotecart/entity.go
package remotecart

import (
	"time"

	"github.com/your-org/cart-sync/internal/domain/cart"
)

// SessionCart is the authoritative cart of one client session
type SessionCart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Line is a stored cart line; product details are joined from the catalog on read
type Line struct {
	ID        string      `json:"id"`
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Status    cart.Status `json:"status"`
	AddedAt   time.Time   `json:"added_at"`
}

func (c *SessionCart) find(itemID string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (c *SessionCart) findProduct(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RawProduct is a product snapshot as received from the remote, before validation.
// Both "id" and the legacy "_id" keys are accepted.
type RawProduct struct {
	ID          string           `json:"id"`
	LegacyID    string           `json:"_id,omitempty"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock"`
	MainImage   string           `json:"mainImage"`
	Brand       string           `json:"brand"`
	Description string           `json:"description"`
}

func (p *RawProduct) id() string {
	if p.ID != "" {
		return p.ID
	}
	return p.LegacyID
}

// RawItem is a cart line as received from the remote
type RawItem struct {
	ID       string      `json:"id"`
	LegacyID string      `json:"_id,omitempty"`
	Product  *RawProduct `json:"product"`
	Quantity int         `json:"quantity"`
	Status   Status      `json:"status"`
}

func (i RawItem) id() string {
	if i.ID != "" {
		return i.ID
	}
	return i.LegacyID
}

// Sanitize converts a raw remote payload into a valid Cart.
// Entries without a line id, a product id or a usable price are dropped; the
// rest keep their input order with name and image defaulted when blank.
func Sanitize(raw []RawItem) Cart {
	out := make(Cart, 0, len(raw))

	for _, r := range raw {
		if strings.TrimSpace(r.id()) == "" {
			continue
		}
		if r.Product == nil || strings.TrimSpace(r.Product.id()) == "" {
			continue
		}
		if r.Product.Price == nil || r.Product.Price.IsNegative() {
			continue
		}

		name := r.Product.Name
		if strings.TrimSpace(name) == "" {
			name = DefaultProductName
		}
		image := r.Product.MainImage
		if strings.TrimSpace(image) == "" {
			image = DefaultProductImage
		}

		out = append(out, CartItem{
			ID: r.id(),
			Product: Product{
				ID:          r.Product.id(),
				Name:        name,
				Price:       *r.Product.Price,
				Stock:       r.Product.Stock,
				MainImage:   image,
				Brand:       r.Product.Brand,
				Description: r.Product.Description,
			},
			Quantity: r.Quantity,
			Status:   r.Status,
		})
	}

	return out
}

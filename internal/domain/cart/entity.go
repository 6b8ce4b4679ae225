// internal/domain/cart/entity.go
package cart

import (
	"github.com/shopspring/decimal"
)

// Status is the fulfillment state of a cart line
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

// Placeholders applied by the sanitizer
const (
	DefaultProductName  = "Producto sin nombre"
	DefaultProductImage = "/default-product.png"
)

// Product is the catalog snapshot embedded in a cart line
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	MainImage   string          `json:"mainImage"`
	Brand       string          `json:"brand,omitempty"`
	Description string          `json:"description,omitempty"`
}

// LowStock reports whether only a handful of units remain
func (p Product) LowStock() bool {
	return p.Stock > 0 && p.Stock <= 5
}

// CartItem is one line of the cart. ID identifies the line, not the product.
type CartItem struct {
	ID       string  `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Status   Status  `json:"status"`
}

// Subtotal returns price times quantity for the line
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the ordered list of lines; order is display order
type Cart []CartItem

// Clone returns an independent copy of the cart
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Find returns the line with the given id
func (c Cart) Find(itemID string) (CartItem, bool) {
	for _, item := range c {
		if item.ID == itemID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Without returns a new cart minus the line with the given id
func (c Cart) Without(itemID string) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID != itemID {
			out = append(out, item)
		}
	}
	return out
}

// Totals represents calculated cart totals
type Totals struct {
	ItemCount     int             `json:"item_count"`     // Number of lines
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	SubTotal      decimal.Decimal `json:"sub_total"`
}

// Totals calculates line count, quantity and subtotal
func (c Cart) Totals() Totals {
	totals := Totals{
		ItemCount: len(c),
		SubTotal:  decimal.Zero,
	}

	for _, item := range c {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal = totals.SubTotal.Add(item.Subtotal())
	}

	return totals
}

// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/cart-sync/internal/domain/cart"
)

// Product represents a purchasable catalog record
type Product struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	Name        string          `gorm:"not null;size:255" json:"name"`
	Categories  []string        `gorm:"serializer:json" json:"categories"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"default:0" json:"stock"`
	MainImage   string          `gorm:"size:500" json:"mainImage"`
	Images      []string        `gorm:"serializer:json" json:"images"`
	Brand       string          `gorm:"size:255" json:"brand,omitempty"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "catalog_products"
}

// MainCategory is the first category, used to find related products
func (p Product) MainCategory() string {
	if len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[0]
}

// InCategory reports whether the product is listed under category
func (p Product) InCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// CartSnapshot returns the product data embedded in a cart line
func (p Product) CartSnapshot() cart.Product {
	return cart.Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		MainImage:   p.MainImage,
		Brand:       p.Brand,
		Description: p.Description,
	}
}

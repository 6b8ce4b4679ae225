package catalog

import "github.com/shopspring/decimal"

// DemoProducts is the catalog used by the reference server in development
func DemoProducts() []Product {
	return []Product{
		{
			ID:          "dog-food-adult-15kg",
			Name:        "Alimento Perro Adulto 15kg",
			Categories:  []string{"Perros", "Alimentos"},
			Price:       decimal.RequireFromString("54990"),
			Stock:       12,
			MainImage:   "/images/dog-food-adult.png",
			Images:      []string{"/images/dog-food-adult.png", "/images/dog-food-adult-back.png"},
			Brand:       "Pro Plan",
			Description: "Alimento completo para perros adultos de razas medianas.",
		},
		{
			ID:         "dog-leash-leather",
			Name:       "Correa de Cuero",
			Categories: []string{"Perros", "Accesorios"},
			Price:      decimal.RequireFromString("15990"),
			Stock:      4,
			MainImage:  "/images/dog-leash.png",
			Images:     []string{"/images/dog-leash.png"},
			Brand:      "Kong",
		},
		{
			ID:          "cat-litter-10l",
			Name:        "Arena Sanitaria 10L",
			Categories:  []string{"Gatos", "Higiene"},
			Price:       decimal.RequireFromString("8990"),
			Stock:       30,
			MainImage:   "/images/cat-litter.png",
			Images:      []string{"/images/cat-litter.png"},
			Description: "Arena aglomerante con control de olores.",
		},
		{
			ID:         "cat-scratcher",
			Name:       "Rascador Torre",
			Categories: []string{"Gatos", "Accesorios"},
			Price:      decimal.RequireFromString("32990"),
			Stock:      2,
			MainImage:  "/images/cat-scratcher.png",
			Images:     []string{"/images/cat-scratcher.png", "/images/cat-scratcher-side.png"},
		},
	}
}

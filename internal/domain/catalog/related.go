package catalog

// Related returns the products sharing the selected product's main category,
// excluding the selected product itself. Input order is kept.
func Related(products []Product, selected Product) []Product {
	main := selected.MainCategory()
	if main == "" {
		return []Product{}
	}

	out := make([]Product, 0)
	for _, p := range products {
		if p.ID != selected.ID && p.InCategory(main) {
			out = append(out, p)
		}
	}
	return out
}

// Others returns the products outside the selected product's main category
func Others(products []Product, selected Product) []Product {
	main := selected.MainCategory()

	out := make([]Product, 0)
	for _, p := range products {
		if main == "" || !p.InCategory(main) {
			if p.ID != selected.ID {
				out = append(out, p)
			}
		}
	}
	return out
}

// CategoryGroup is one category with its products
type CategoryGroup struct {
	Category string    `json:"category"`
	Products []Product `json:"products"`
}

// GroupByCategory groups products by every category they list.
// Categories appear in first-seen order; a product may appear in several groups.
func GroupByCategory(products []Product) []CategoryGroup {
	index := make(map[string]int)
	groups := make([]CategoryGroup, 0)

	for _, p := range products {
		for _, c := range p.Categories {
			i, ok := index[c]
			if !ok {
				i = len(groups)
				index[c] = i
				groups = append(groups, CategoryGroup{Category: c})
			}
			// a product listing the same category twice is grouped once
			if n := len(groups[i].Products); n > 0 && groups[i].Products[n-1].ID == p.ID {
				continue
			}
			groups[i].Products = append(groups[i].Products, p)
		}
	}
	return groups
}

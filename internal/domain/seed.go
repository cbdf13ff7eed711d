package domain

import "time"

// DefaultCatalog is the stall's own lineup, loaded when a store starts
// with no catalog at all. Internal items carry price 0: the till asks
// for the price at sale time. IDs are left empty for the store to fill.
func DefaultCatalog(internalTag string, now time.Time) []InventoryItem {
	seed := []struct {
		name     string
		stock    int
		category string
	}{
		{"Pisang Goreng", 100, "Gorengan"},
		{"Keropok Lekor", 100, "Gorengan"},
		{"Keledek", 100, "Gorengan"},
		{"Air Balang", 100, "Minuman"},
		{"Keropok Keping", 50, "Gorengan"},
	}

	items := make([]InventoryItem, 0, len(seed))
	for _, s := range seed {
		items = append(items, InventoryItem{
			VendorName: internalTag,
			Name:       s.name,
			PriceCents: 0,
			CostCents:  0,
			Stock:      s.stock,
			Category:   s.category,
			Origin:     OriginInternal,
			DateAdded:  now,
		})
	}
	return items
}

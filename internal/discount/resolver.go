// Package discount maps active discount records onto catalog products.
package discount

import (
	"github.com/telshop/storefront/internal/domain"
)

// Annotate attaches discount percentage and expiry to every product that has
// a matching discount record. The input slice is not mutated; a new slice is
// returned. Expired discounts are passed through untouched — expiry is
// evaluated wherever a price is computed, not here.
func Annotate(products []domain.Product, discounts []domain.Discount) []domain.Product {
	if len(products) == 0 {
		return nil
	}

	byProduct := make(map[int64]domain.Discount, len(discounts))
	for _, d := range discounts {
		byProduct[d.ProductID] = d
	}

	out := make([]domain.Product, len(products))
	for i, p := range products {
		if d, ok := byProduct[p.ID]; ok {
			expiry := d.ExpiryTime
			p.DiscountPercentage = d.Percentage
			p.DiscountExpiry = &expiry
		}
		out[i] = p
	}
	return out
}

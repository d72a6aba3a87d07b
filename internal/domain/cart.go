package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineItem is a single product line in the cart. UnitPrice is the base
// price captured when the item was added; the discount fields mirror the
// product annotation at that moment. Quantity is never stored below 1 —
// a line reduced to zero is removed from the cart instead.
type CartLineItem struct {
	ProductID          int64           `json:"productId"`
	Name               string          `json:"name"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	Quantity           int             `json:"quantity"`
	DiscountPercentage float64         `json:"discountPercentage,omitempty"`
	DiscountExpiry     *time.Time      `json:"discountExpiry,omitempty"`
}

// Cart is the client-side cart snapshot. Total is derived from the items
// and recomputed after every mutation, never set independently.
type Cart struct {
	Items []CartLineItem  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// EmptyCart returns a fresh cart with no items and a zero total.
func EmptyCart() *Cart {
	return &Cart{Items: []CartLineItem{}, Total: decimal.Zero}
}

// Clone returns a deep copy so callers can hand out read-only snapshots.
func (c *Cart) Clone() Cart {
	items := make([]CartLineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items, Total: c.Total}
}

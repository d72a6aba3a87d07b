// Package pricing computes effective prices and cart totals. All functions
// are pure; the evaluation instant is passed in so expiry behaviour is
// reproducible in tests.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/telshop/storefront/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// EffectivePrice returns the line's unit price after applying its discount,
// or the base price when the discount is absent, zero or expired. A zero
// percentage is indistinguishable from no discount.
func EffectivePrice(item domain.CartLineItem, now time.Time) decimal.Decimal {
	if item.DiscountPercentage <= 0 || item.DiscountExpiry == nil {
		return item.UnitPrice
	}
	if !now.Before(*item.DiscountExpiry) {
		return item.UnitPrice
	}
	pct := decimal.NewFromFloat(item.DiscountPercentage)
	off := item.UnitPrice.Mul(pct).Div(hundred)
	return item.UnitPrice.Sub(off)
}

// CartTotal sums effective price times quantity across all items. The total
// carries full decimal precision; display rounding belongs to the
// presentation boundary.
func CartTotal(items []domain.CartLineItem, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := EffectivePrice(item, now).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

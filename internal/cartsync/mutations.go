package cartsync

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/telshop/storefront/internal/domain"
	"github.com/telshop/storefront/internal/pricing"
)

// The mutation algorithms below are shared by the optimistic in-memory path
// and the local-store fallback path; both must converge on the same result
// when the remote service never acknowledges a mutation.

func applyAdd(cart *domain.Cart, productID int64, quantity int, product *domain.Product, now time.Time) {
	defer recompute(cart, now)

	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			return
		}
	}

	item := domain.CartLineItem{ProductID: productID, Quantity: quantity}
	if product != nil {
		item.Name = product.Name
		item.UnitPrice = product.Price
		item.DiscountPercentage = product.DiscountPercentage
		item.DiscountExpiry = product.DiscountExpiry
	} else {
		// Product info unavailable (catalog down during fallback): a
		// placeholder line keeps the add from failing.
		item.Name = fmt.Sprintf("Product ID %d", productID)
		item.UnitPrice = decimal.Zero
	}
	cart.Items = append(cart.Items, item)
}

// applyUpdate sets the quantity to an absolute value; zero or below removes
// the line entirely, so no item is ever stored with quantity < 1.
func applyUpdate(cart *domain.Cart, productID int64, quantity int, now time.Time) {
	defer recompute(cart, now)

	if quantity <= 0 {
		removeLine(cart, productID)
		return
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = quantity
			return
		}
	}
}

// applyRemove is a no-op when the product is not in the cart.
func applyRemove(cart *domain.Cart, productID int64, now time.Time) {
	removeLine(cart, productID)
	recompute(cart, now)
}

func removeLine(cart *domain.Cart, productID int64) {
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
}

func recompute(cart *domain.Cart, now time.Time) {
	cart.Total = pricing.CartTotal(cart.Items, now)
}

package httpapi

import (
	"time"

	"github.com/telshop/storefront/internal/domain"
	"github.com/telshop/storefront/internal/pricing"
)

// The DTOs below are the only place monetary values are rounded: amounts
// render with two decimals here, while the stored state keeps full
// precision.

type ProductDTO struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Price              string     `json:"price"`
	Type               string     `json:"type"`
	ImageURL           string     `json:"imageUrl,omitempty"`
	DataAllowance      string     `json:"dataAllowance,omitempty"`
	Brand              string     `json:"brand,omitempty"`
	DiscountPercentage float64    `json:"discountPercentage,omitempty"`
	DiscountExpiry     *time.Time `json:"discountExpiry,omitempty"`
}

type ListingDTO struct {
	Products   []ProductDTO `json:"products"`
	TotalPages int          `json:"totalPages"`
	Page       int          `json:"page"`
	Error      string       `json:"error,omitempty"`
	Retriable  bool         `json:"retriable,omitempty"`
}

type CartItemDTO struct {
	ProductID          int64      `json:"productId"`
	Name               string     `json:"name"`
	UnitPrice          string     `json:"unitPrice"`
	EffectivePrice     string     `json:"effectivePrice"`
	Quantity           int        `json:"quantity"`
	DiscountPercentage float64    `json:"discountPercentage,omitempty"`
	DiscountExpiry     *time.Time `json:"discountExpiry,omitempty"`
}

type CartDTO struct {
	Items   []CartItemDTO `json:"items"`
	Total   string        `json:"total"`
	Offline bool          `json:"offline,omitempty"`
}

type OrderDTO struct {
	ID         string        `json:"id"`
	Items      []CartItemDTO `json:"items"`
	Total      string        `json:"total"`
	Status     string        `json:"status"`
	PaymentRef string        `json:"paymentRef"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func toProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price.StringFixed(2),
		Type:               string(p.Type),
		ImageURL:           p.ImageURL,
		DataAllowance:      p.DataAllowance,
		Brand:              p.Brand,
		DiscountPercentage: p.DiscountPercentage,
		DiscountExpiry:     p.DiscountExpiry,
	}
}

func toListingDTO(page *domain.ProductPage, displayPage int) ListingDTO {
	products := make([]ProductDTO, len(page.Products))
	for i, p := range page.Products {
		products[i] = toProductDTO(p)
	}
	return ListingDTO{
		Products:   products,
		TotalPages: page.TotalPages,
		Page:       displayPage,
	}
}

func toCartDTO(cart domain.Cart, offline bool, now time.Time) CartDTO {
	items := make([]CartItemDTO, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemDTO{
			ProductID:          item.ProductID,
			Name:               item.Name,
			UnitPrice:          item.UnitPrice.StringFixed(2),
			EffectivePrice:     pricing.EffectivePrice(item, now).StringFixed(2),
			Quantity:           item.Quantity,
			DiscountPercentage: item.DiscountPercentage,
			DiscountExpiry:     item.DiscountExpiry,
		}
	}
	return CartDTO{
		Items:   items,
		Total:   cart.Total.StringFixed(2),
		Offline: offline,
	}
}

func toOrderDTO(order *domain.Order, now time.Time) OrderDTO {
	items := make([]CartItemDTO, len(order.Items))
	for i, item := range order.Items {
		items[i] = CartItemDTO{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPrice:      item.UnitPrice.StringFixed(2),
			EffectivePrice: pricing.EffectivePrice(item, now).StringFixed(2),
			Quantity:       item.Quantity,
		}
	}
	return OrderDTO{
		ID:         order.ID,
		Items:      items,
		Total:      order.Total.StringFixed(2),
		Status:     string(order.Status),
		PaymentRef: order.PaymentRef,
		CreatedAt:  order.CreatedAt,
	}
}

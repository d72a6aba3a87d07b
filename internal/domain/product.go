package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductTypeTariff ProductType = "tariff"
	ProductTypeDevice ProductType = "device"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Type        ProductType     `json:"type"`
	ImageURL    string          `json:"imageUrl,omitempty"`

	// DataAllowance is set for tariffs, Brand for devices.
	DataAllowance string `json:"dataAllowance,omitempty"`
	Brand         string `json:"brand,omitempty"`

	// Discount annotation, attached by the resolver after a catalog fetch.
	DiscountPercentage float64    `json:"discountPercentage,omitempty"`
	DiscountExpiry     *time.Time `json:"discountExpiry,omitempty"`
}

type ProductPage struct {
	Products   []Product `json:"products"`
	TotalPages int       `json:"totalPages"`
}

type Discount struct {
	ProductID  int64     `json:"productId"`
	Percentage float64   `json:"percentage"`
	ExpiryTime time.Time `json:"expiryTime"`
}

// Active reports whether the discount applies at the given instant.
func (d Discount) Active(now time.Time) bool {
	return now.Before(d.ExpiryTime)
}

type Sort string

const (
	SortPopularity   Sort = "popularity"
	SortPriceLowHigh Sort = "price-low-high"
	SortPriceHighLow Sort = "price-high-low"
	SortNewest       Sort = "newest"
)

// Filters narrows a catalog listing. Zero values mean "no constraint".
type Filters struct {
	Type          ProductType
	MaxPrice      *decimal.Decimal
	DataAllowance string
	Brand         string
}

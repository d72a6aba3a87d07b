package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/telshop/storefront/internal/domain"
)

// PlaceholderPage is the fixed sample listing shown when every fetch
// attempt has failed, so the storefront never renders an empty screen.
func PlaceholderPage(now time.Time) *domain.ProductPage {
	hour := now.Add(time.Hour)
	halfHour := now.Add(30 * time.Minute)
	return &domain.ProductPage{
		Products: []domain.Product{
			{
				ID:                 1,
				Name:               "Unlimited Data Plan",
				Description:        "Unlimited data, calls and texts. Perfect for heavy users.",
				Price:              decimal.NewFromFloat(49.99),
				Type:               domain.ProductTypeTariff,
				DataAllowance:      "Unlimited",
				DiscountPercentage: 10,
				DiscountExpiry:     &hour,
			},
			{
				ID:          2,
				Name:        "iPhone 13 Pro",
				Description: "Latest iPhone with A15 Bionic chip and Pro camera system.",
				Price:       decimal.NewFromFloat(999.99),
				Type:        domain.ProductTypeDevice,
				Brand:       "Apple",
			},
			{
				ID:            3,
				Name:          "5G Basic Plan",
				Description:   "10GB data with 5G speeds, unlimited calls and texts.",
				Price:         decimal.NewFromFloat(29.99),
				Type:          domain.ProductTypeTariff,
				DataAllowance: "10GB",
			},
			{
				ID:                 4,
				Name:               "Samsung Galaxy S21",
				Description:        "Powerful Android phone with amazing camera and 5G.",
				Price:              decimal.NewFromFloat(799.99),
				Type:               domain.ProductTypeDevice,
				Brand:              "Samsung",
				DiscountPercentage: 15,
				DiscountExpiry:     &halfHour,
			},
		},
		TotalPages: 1,
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

// CheckoutInfo holds the customer contact and billing fields for the
// duration of a checkout session only.
type CheckoutInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Phone    string `json:"phone,omitempty"`
}

type OrderRequest struct {
	Items      []CartLineItem  `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Customer   CheckoutInfo    `json:"customer"`
	PaymentRef string          `json:"paymentRef"`
}

type Order struct {
	ID         string          `json:"id"`
	Items      []CartLineItem  `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Customer   CheckoutInfo    `json:"customer"`
	PaymentRef string          `json:"paymentRef"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/telshop/storefront/internal/checkout"
	"github.com/telshop/storefront/internal/domain"
)

// CheckoutService is the order surface the checkout handlers need;
// *checkout.Service satisfies it.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, customer domain.CheckoutInfo, paymentRef string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	now      func() time.Time
}

func NewCheckoutHandler(svc CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: svc, now: time.Now}
}

type checkoutRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Postcode   string `json:"postcode"`
	Phone      string `json:"phone,omitempty"`
	PaymentRef string `json:"paymentRef,omitempty"`
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, "missing_customer_info", "name and email are required")
		return
	}

	customer := domain.CheckoutInfo{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Address:  strings.TrimSpace(req.Address),
		City:     strings.TrimSpace(req.City),
		Postcode: strings.TrimSpace(req.Postcode),
		Phone:    strings.TrimSpace(req.Phone),
	}

	order, err := h.checkout.PlaceOrder(r.Context(), customer, req.PaymentRef)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "order_failed", "Failed to place order. Please try again later.")
		return
	}

	respondJSON(w, http.StatusCreated, toOrderDTO(order, h.now()))
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id is required")
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order, h.now()))
}

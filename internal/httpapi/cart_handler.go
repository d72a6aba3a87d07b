package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/telshop/storefront/internal/domain"
)

const (
	minQuantity = 1
	maxQuantity = 99
)

// CartSession is the synchronizer surface the cart handlers need;
// *cartsync.Synchronizer satisfies it.
type CartSession interface {
	Snapshot() domain.Cart
	Offline() bool
	Add(ctx context.Context, productID int64, quantity int, product *domain.Product)
	UpdateQuantity(ctx context.Context, productID int64, quantity int)
	Remove(ctx context.Context, productID int64)
	Clear(ctx context.Context)
}

// ProductLookup resolves product details for add-to-cart. A nil product
// is a valid outcome; the cart then carries a placeholder line.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type CartHandler struct {
	cart    CartSession
	catalog ProductLookup
	now     func() time.Time
}

func NewCartHandler(cart CartSession, catalog ProductLookup) *CartHandler {
	return &CartHandler{cart: cart, catalog: catalog, now: time.Now}
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot(), h.cart.Offline(), h.now()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}
	if req.Quantity < minQuantity || req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		// The cart still accepts the item; a placeholder line is
		// synthesized until the catalog recovers.
		log.Printf("cart: product %d lookup failed: %v", req.ProductID, err)
		product = nil
	}

	h.cart.Add(r.Context(), req.ProductID, req.Quantity, product)
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot(), h.cart.Offline(), h.now()))
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Quantity > maxQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	h.cart.UpdateQuantity(r.Context(), productID, req.Quantity)
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot(), h.cart.Offline(), h.now()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	h.cart.Remove(r.Context(), productID)
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot(), h.cart.Offline(), h.now()))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear(r.Context())
	respondJSON(w, http.StatusOK, toCartDTO(h.cart.Snapshot(), h.cart.Offline(), h.now()))
}

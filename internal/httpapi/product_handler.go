package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/telshop/storefront/internal/catalog"
	"github.com/telshop/storefront/internal/domain"
)

// CatalogFetcher is the listing surface the product handlers need;
// *catalog.Fetcher satisfies it.
type CatalogFetcher interface {
	List(ctx context.Context, filters domain.Filters, page int, sort domain.Sort) (*domain.ProductPage, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type ProductHandler struct {
	fetcher CatalogFetcher
	now     func() time.Time
}

func NewProductHandler(fetcher CatalogFetcher) *ProductHandler {
	return &ProductHandler{fetcher: fetcher, now: time.Now}
}

var validSorts = map[domain.Sort]bool{
	domain.SortPopularity:   true,
	domain.SortPriceLowHigh: true,
	domain.SortPriceHighLow: true,
	domain.SortNewest:       true,
}

// List serves the product listing. Pages are one-indexed here and
// translated to the zero-indexed wire format. When every fetch attempt
// fails the response still carries a placeholder listing plus a retriable
// error, never an empty screen.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
			return
		}
		page = parsed
	}

	sort := domain.SortPopularity
	if raw := q.Get("sort"); raw != "" {
		sort = domain.Sort(raw)
		if !validSorts[sort] {
			respondError(w, http.StatusBadRequest, "invalid_sort", "unknown sort value")
			return
		}
	}

	filters := domain.Filters{
		Type:          domain.ProductType(q.Get("type")),
		DataAllowance: q.Get("dataAllowance"),
		Brand:         q.Get("brand"),
	}
	if raw := q.Get("maxPrice"); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_max_price", "maxPrice must be a number")
			return
		}
		filters.MaxPrice = &maxPrice
	}

	result, err := h.fetcher.List(r.Context(), filters, page-1, sort)
	if err != nil {
		dto := toListingDTO(catalog.PlaceholderPage(h.now()), page)
		dto.Error = "Failed to load products. Please try again later."
		dto.Retriable = true
		respondJSON(w, http.StatusOK, dto)
		return
	}

	respondJSON(w, http.StatusOK, toListingDTO(result, page))
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	product, err := h.fetcher.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, "catalog_unavailable", "Failed to load product. Please try again later.")
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(*product))
}

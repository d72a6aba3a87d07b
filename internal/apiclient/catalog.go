package apiclient

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/telshop/storefront/internal/domain"
)

// CatalogClient reads product listings. Every call goes to the primary base
// URL first and falls back to the proxy base URL with identical parameters;
// only when both fail does the caller see an error. The pair counts as one
// logical attempt for the fetcher's retry loop.
type CatalogClient struct {
	primary string
	proxy   string
	http    *http.Client
}

func NewCatalogClient(primaryBaseURL, proxyBaseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		primary: primaryBaseURL,
		proxy:   proxyBaseURL,
		http:    newHTTPClient(timeout),
	}
}

// List fetches one catalog page. Page is zero-indexed on the wire.
func (c *CatalogClient) List(ctx context.Context, filters domain.Filters, page int, sort domain.Sort) (*domain.ProductPage, error) {
	q := url.Values{}
	if filters.Type != "" {
		q.Set("type", string(filters.Type))
	}
	if filters.MaxPrice != nil {
		q.Set("maxPrice", filters.MaxPrice.String())
	}
	if filters.DataAllowance != "" {
		q.Set("dataAllowance", filters.DataAllowance)
	}
	if filters.Brand != "" {
		q.Set("brand", filters.Brand)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("sort", string(sort))
	path := "/?" + q.Encode()

	var result domain.ProductPage
	if err := doJSON(ctx, c.http, http.MethodGet, c.primary+path, nil, &result); err == nil {
		return &result, nil
	} else {
		log.Printf("catalog: primary route failed, trying proxy: %v", err)
	}

	result = domain.ProductPage{}
	if err := doJSON(ctx, c.http, http.MethodGet, c.proxy+path, nil, &result); err != nil {
		return nil, fmt.Errorf("both catalog routes failed: %w", err)
	}
	return &result, nil
}

// Get fetches a single product by id, with the same primary/proxy pair.
func (c *CatalogClient) Get(ctx context.Context, id int64) (*domain.Product, error) {
	path := "/" + strconv.FormatInt(id, 10)

	var product domain.Product
	if err := doJSON(ctx, c.http, http.MethodGet, c.primary+path, nil, &product); err == nil {
		return &product, nil
	} else {
		log.Printf("catalog: primary route failed for product %d, trying proxy: %v", id, err)
	}

	product = domain.Product{}
	if err := doJSON(ctx, c.http, http.MethodGet, c.proxy+path, nil, &product); err != nil {
		return nil, fmt.Errorf("both catalog routes failed for product %d: %w", id, err)
	}
	return &product, nil
}

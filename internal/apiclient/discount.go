package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/telshop/storefront/internal/domain"
)

type DiscountClient struct {
	base string
	http *http.Client
}

func NewDiscountClient(baseURL string, timeout time.Duration) *DiscountClient {
	return &DiscountClient{base: baseURL, http: newHTTPClient(timeout)}
}

func (c *DiscountClient) List(ctx context.Context) ([]domain.Discount, error) {
	var discounts []domain.Discount
	if err := doJSON(ctx, c.http, http.MethodGet, c.base+"/", nil, &discounts); err != nil {
		return nil, err
	}
	return discounts, nil
}

func (c *DiscountClient) ByProduct(ctx context.Context, productID int64) ([]domain.Discount, error) {
	var discounts []domain.Discount
	path := c.base + "/product/" + strconv.FormatInt(productID, 10)
	if err := doJSON(ctx, c.http, http.MethodGet, path, nil, &discounts); err != nil {
		return nil, err
	}
	return discounts, nil
}

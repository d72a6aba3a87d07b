package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/telshop/storefront/internal/domain"
)

type OrderClient struct {
	base string
	http *http.Client
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{base: baseURL, http: newHTTPClient(timeout)}
}

func (c *OrderClient) Create(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	var order domain.Order
	if err := doJSON(ctx, c.http, http.MethodPost, c.base+"/", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderClient) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := doJSON(ctx, c.http, http.MethodGet, c.base+"/"+orderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

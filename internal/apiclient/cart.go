package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/telshop/storefront/internal/domain"
)

type cartMutationBody struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity,omitempty"`
}

// CartClient talks to the remote cart service. Calls run through a circuit
// breaker so that a dead cart service fails fast instead of burning the
// full request timeout on every mutation; the synchronizer treats an open
// breaker like any other failure and falls back to the local store.
type CartClient struct {
	base    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.Cart]
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	breaker := gobreaker.NewCircuitBreaker[*domain.Cart](gobreaker.Settings{
		Name:    "cart-service",
		Timeout: 30 * time.Second,
	})
	return &CartClient{base: baseURL, http: newHTTPClient(timeout), breaker: breaker}
}

func (c *CartClient) Get(ctx context.Context) (*domain.Cart, error) {
	return c.breaker.Execute(func() (*domain.Cart, error) {
		var cart domain.Cart
		if err := doJSON(ctx, c.http, http.MethodGet, c.base+"/", nil, &cart); err != nil {
			return nil, err
		}
		return &cart, nil
	})
}

func (c *CartClient) Add(ctx context.Context, productID int64, quantity int) (*domain.Cart, error) {
	return c.breaker.Execute(func() (*domain.Cart, error) {
		body := cartMutationBody{ProductID: productID, Quantity: quantity}
		var cart domain.Cart
		if err := doJSON(ctx, c.http, http.MethodPost, c.base+"/add", body, &cart); err != nil {
			return nil, err
		}
		return &cart, nil
	})
}

func (c *CartClient) Update(ctx context.Context, productID int64, quantity int) (*domain.Cart, error) {
	return c.breaker.Execute(func() (*domain.Cart, error) {
		body := cartMutationBody{ProductID: productID, Quantity: quantity}
		var cart domain.Cart
		if err := doJSON(ctx, c.http, http.MethodPut, c.base+"/update", body, &cart); err != nil {
			return nil, err
		}
		return &cart, nil
	})
}

func (c *CartClient) Remove(ctx context.Context, productID int64) (*domain.Cart, error) {
	return c.breaker.Execute(func() (*domain.Cart, error) {
		body := cartMutationBody{ProductID: productID}
		var cart domain.Cart
		if err := doJSON(ctx, c.http, http.MethodDelete, c.base+"/remove", body, &cart); err != nil {
			return nil, err
		}
		return &cart, nil
	})
}

func (c *CartClient) Clear(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (*domain.Cart, error) {
		if err := doJSON(ctx, c.http, http.MethodDelete, c.base+"/", nil, nil); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// Package catalog retrieves product listings, retrying transient failures
// and annotating results with active discounts.
package catalog

import (
	"context"
	"log"
	"time"

	"github.com/telshop/storefront/internal/discount"
	"github.com/telshop/storefront/internal/domain"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// ListingClient is the catalog service surface the fetcher needs. The
// primary/proxy endpoint pair lives inside the client; one call here is one
// logical attempt for the retry loop.
type ListingClient interface {
	List(ctx context.Context, filters domain.Filters, page int, sort domain.Sort) (*domain.ProductPage, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type DiscountClient interface {
	List(ctx context.Context) ([]domain.Discount, error)
	ByProduct(ctx context.Context, productID int64) ([]domain.Discount, error)
}

type Fetcher struct {
	catalog   ListingClient
	discounts DiscountClient

	maxAttempts int
	baseDelay   time.Duration
}

func NewFetcher(catalog ListingClient, discounts DiscountClient) *Fetcher {
	return &Fetcher{
		catalog:     catalog,
		discounts:   discounts,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
}

// WithRetry overrides the backoff policy. Meant for wiring and tests.
func (f *Fetcher) WithRetry(maxAttempts int, baseDelay time.Duration) *Fetcher {
	f.maxAttempts = maxAttempts
	f.baseDelay = baseDelay
	return f
}

// List fetches one page of products and annotates it with active discounts.
// A discount fetch failure degrades to an unannotated listing; a catalog
// fetch failure after all attempts propagates the last error.
func (f *Fetcher) List(ctx context.Context, filters domain.Filters, page int, sort domain.Sort) (*domain.ProductPage, error) {
	result, err := retry(ctx, f.maxAttempts, f.baseDelay, func() (*domain.ProductPage, error) {
		return f.catalog.List(ctx, filters, page, sort)
	})
	if err != nil {
		return nil, err
	}

	discounts, err := retry(ctx, f.maxAttempts, f.baseDelay, func() ([]domain.Discount, error) {
		return f.discounts.List(ctx)
	})
	if err != nil {
		log.Printf("catalog: could not fetch discounts, listing without discount data: %v", err)
		return result, nil
	}

	result.Products = discount.Annotate(result.Products, discounts)
	return result, nil
}

// Get fetches a single product, annotated with its discount if one exists.
func (f *Fetcher) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := retry(ctx, f.maxAttempts, f.baseDelay, func() (*domain.Product, error) {
		return f.catalog.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	discounts, err := retry(ctx, f.maxAttempts, f.baseDelay, func() ([]domain.Discount, error) {
		return f.discounts.ByProduct(ctx, id)
	})
	if err != nil {
		log.Printf("catalog: could not fetch discount for product %d: %v", id, err)
		return product, nil
	}

	annotated := discount.Annotate([]domain.Product{*product}, discounts)
	return &annotated[0], nil
}

// retry runs call up to maxAttempts times, doubling the delay after each
// failure starting from baseDelay. The last error is returned when every
// attempt fails.
func retry[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := call()
		if err == nil {
			return v, nil
		}
		lastErr = err
		log.Printf("catalog: attempt %d failed: %v", attempt+1, err)

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return zero, lastErr
}

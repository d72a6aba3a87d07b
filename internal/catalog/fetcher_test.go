package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telshop/storefront/internal/domain"
)

type mockListing struct {
	m        sync.Mutex
	page     *domain.ProductPage
	product  *domain.Product
	failures int
	calls    int
}

func (m *mockListing) List(context.Context, domain.Filters, int, domain.Sort) (*domain.ProductPage, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return nil, errors.New("catalog unreachable")
	}
	return m.page, nil
}

func (m *mockListing) Get(context.Context, int64) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return nil, errors.New("catalog unreachable")
	}
	return m.product, nil
}

type mockDiscounts struct {
	discounts []domain.Discount
	err       error
}

func (m *mockDiscounts) List(context.Context) ([]domain.Discount, error) {
	return m.discounts, m.err
}

func (m *mockDiscounts) ByProduct(context.Context, int64) ([]domain.Discount, error) {
	return m.discounts, m.err
}

func testPage() *domain.ProductPage {
	return &domain.ProductPage{
		Products: []domain.Product{
			{ID: 1, Name: "Unlimited Data Plan", Price: decimal.NewFromFloat(49.99)},
			{ID: 2, Name: "iPhone 13 Pro", Price: decimal.NewFromFloat(999.99)},
		},
		TotalPages: 2,
	}
}

func TestList_AnnotatesDiscounts(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	listing := &mockListing{page: testPage()}
	discounts := &mockDiscounts{discounts: []domain.Discount{
		{ProductID: 1, Percentage: 10, ExpiryTime: expiry},
	}}

	f := NewFetcher(listing, discounts).WithRetry(3, time.Millisecond)

	page, err := f.List(context.Background(), domain.Filters{}, 0, domain.SortPopularity)

	require.NoError(t, err)
	assert.Equal(t, float64(10), page.Products[0].DiscountPercentage)
	assert.Nil(t, page.Products[1].DiscountExpiry)
}

func TestList_RetriesTransientFailures(t *testing.T) {
	listing := &mockListing{page: testPage(), failures: 2}
	f := NewFetcher(listing, &mockDiscounts{}).WithRetry(3, time.Millisecond)

	page, err := f.List(context.Background(), domain.Filters{}, 0, domain.SortPopularity)

	require.NoError(t, err)
	assert.Equal(t, 3, listing.calls)
	assert.Len(t, page.Products, 2)
}

func TestList_AllAttemptsExhausted(t *testing.T) {
	listing := &mockListing{page: testPage(), failures: 10}
	f := NewFetcher(listing, &mockDiscounts{}).WithRetry(3, time.Millisecond)

	_, err := f.List(context.Background(), domain.Filters{}, 0, domain.SortPopularity)

	require.Error(t, err)
	assert.Equal(t, 3, listing.calls)
}

func TestList_DiscountFailureDegradesGracefully(t *testing.T) {
	listing := &mockListing{page: testPage()}
	discounts := &mockDiscounts{err: errors.New("discount service down")}
	f := NewFetcher(listing, discounts).WithRetry(2, time.Millisecond)

	page, err := f.List(context.Background(), domain.Filters{}, 0, domain.SortPopularity)

	require.NoError(t, err)
	for _, p := range page.Products {
		assert.Zero(t, p.DiscountPercentage)
	}
}

func TestGet_AnnotatesSingleProduct(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	listing := &mockListing{product: &domain.Product{ID: 4, Name: "Samsung Galaxy S21"}}
	discounts := &mockDiscounts{discounts: []domain.Discount{
		{ProductID: 4, Percentage: 15, ExpiryTime: expiry},
	}}
	f := NewFetcher(listing, discounts).WithRetry(2, time.Millisecond)

	product, err := f.Get(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, float64(15), product.DiscountPercentage)
}

func TestRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listing := &mockListing{page: testPage(), failures: 10}
	f := NewFetcher(listing, &mockDiscounts{}).WithRetry(3, time.Hour)

	_, err := f.List(ctx, domain.Filters{}, 0, domain.SortPopularity)

	assert.ErrorIs(t, err, context.Canceled)
}

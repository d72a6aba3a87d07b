package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telshop/storefront/internal/domain"
)

func TestCartAdd_ReturnsServerSnapshot(t *testing.T) {
	var gotBody cartMutationBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/add", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(domain.Cart{
			Items: []domain.CartLineItem{
				{ProductID: 7, Name: "5G Basic Plan", UnitPrice: decimal.NewFromFloat(29.99), Quantity: 2},
			},
			Total: decimal.NewFromFloat(59.98),
		})
	}))
	defer srv.Close()

	client := NewCartClient(srv.URL, time.Second)

	cart, err := client.Add(context.Background(), 7, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(7), gotBody.ProductID)
	assert.Equal(t, 2, gotBody.Quantity)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Total.Equal(decimal.NewFromFloat(59.98)))
}

func TestCartClear_NoBodyExpected(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewCartClient(srv.URL, time.Second)

	require.NoError(t, client.Clear(context.Background()))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/", gotPath)
}

func TestCartClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	client := NewCartClient("http://127.0.0.1:1", 100*time.Millisecond)
	ctx := context.Background()

	// Drive the breaker to open; default settings trip after more than
	// five consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := client.Get(ctx)
		require.Error(t, err)
	}

	// Once open, the breaker rejects the call without touching the network.
	_, err := client.Get(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

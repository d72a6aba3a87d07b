// Package store persists the last-known cart snapshot. The snapshot is a
// fallback baseline, never the source of truth while the remote cart
// service is healthy. Every backend keeps one opaque serialized snapshot
// per session key; a missing or corrupt snapshot reads back as an empty
// cart, never as an error.
package store

import (
	"context"
	"encoding/json"
	"log"

	"github.com/telshop/storefront/internal/domain"
)

type Store interface {
	// Load returns the persisted snapshot, or an empty cart when none
	// exists. Errors are reserved for backend failures, not absence.
	Load(ctx context.Context) (*domain.Cart, error)
	// Save overwrites the snapshot. Best-effort; callers log and move on.
	Save(ctx context.Context, cart *domain.Cart) error
	// Clear removes the snapshot entirely.
	Clear(ctx context.Context) error
}

func encodeSnapshot(cart *domain.Cart) ([]byte, error) {
	return json.Marshal(cart)
}

// decodeSnapshot treats malformed data as absence.
func decodeSnapshot(data []byte) *domain.Cart {
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		log.Printf("store: discarding corrupt cart snapshot: %v", err)
		return domain.EmptyCart()
	}
	if cart.Items == nil {
		cart.Items = []domain.CartLineItem{}
	}
	return &cart
}

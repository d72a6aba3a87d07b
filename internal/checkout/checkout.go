// Package checkout drives order placement from the current cart snapshot.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/telshop/storefront/internal/domain"
)

var ErrEmptyCart = errors.New("cannot place an order with an empty cart")

// OrderClient is the order service surface needed for checkout.
type OrderClient interface {
	Create(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
}

// CartSession is what checkout needs from the synchronizer: the current
// snapshot and the ability to clear the cart once the order is placed.
type CartSession interface {
	Snapshot() domain.Cart
	Clear(ctx context.Context)
}

type Service struct {
	orders OrderClient
	cart   CartSession

	m      sync.Mutex
	placed map[string]struct{} // order ids placed in this session
}

func NewService(orders OrderClient, cart CartSession) *Service {
	return &Service{
		orders: orders,
		cart:   cart,
		placed: make(map[string]struct{}),
	}
}

// PlaceOrder sends the cart's contents to the order service and clears the
// cart on success. The payment reference is opaque here; when empty, one is
// generated so the order can still be correlated with a later capture.
func (s *Service) PlaceOrder(ctx context.Context, customer domain.CheckoutInfo, paymentRef string) (*domain.Order, error) {
	snap := s.cart.Snapshot()
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if paymentRef == "" {
		paymentRef = uuid.NewString()
	}

	order, err := s.orders.Create(ctx, domain.OrderRequest{
		Items:      snap.Items,
		Total:      snap.Total,
		Customer:   customer,
		PaymentRef: paymentRef,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.m.Lock()
	s.placed[order.ID] = struct{}{}
	s.m.Unlock()

	log.Printf("checkout: order %s placed, clearing cart", order.ID)
	s.cart.Clear(ctx)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return order, nil
}

// Owns reports whether the given order was placed by this session. The
// payment-events poller uses it to decide whose events matter.
func (s *Service) Owns(orderID string) bool {
	s.m.Lock()
	defer s.m.Unlock()
	_, ok := s.placed[orderID]
	return ok
}

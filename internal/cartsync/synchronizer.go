// Package cartsync owns the authoritative in-memory cart and keeps it,
// the remote cart service and the durable local snapshot in agreement.
//
// Every mutation runs in two phases: an optimistic phase that updates the
// in-memory cart synchronously, and an asynchronous reconciliation phase
// that replays the mutation against the remote service. A reconciliation
// failure never rolls the optimistic edit back; the same mutation is
// re-applied to the local store's last snapshot instead, so memory and the
// fallback baseline converge even while the service is down.
package cartsync

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/telshop/storefront/internal/domain"
	"github.com/telshop/storefront/internal/pricing"
	"github.com/telshop/storefront/internal/store"
)

// RemoteCart is the cart service surface the synchronizer reconciles
// against. Mutations return the server's snapshot when it sends one.
type RemoteCart interface {
	Get(ctx context.Context) (*domain.Cart, error)
	Add(ctx context.Context, productID int64, quantity int) (*domain.Cart, error)
	Update(ctx context.Context, productID int64, quantity int) (*domain.Cart, error)
	Remove(ctx context.Context, productID int64) (*domain.Cart, error)
	Clear(ctx context.Context) error
}

type Synchronizer struct {
	remote RemoteCart
	store  store.Store
	now    func() time.Time

	mu      sync.Mutex
	cart    domain.Cart
	offline bool
	seq     uint64 // sequence of the most recent mutation intent
	applied uint64 // highest sequence whose reconciliation has been applied

	// storeMu serializes reconciliation writes to the store. Fallback is a
	// load-replay-save; two of those interleaving would drop a mutation
	// from the baseline.
	storeMu sync.Mutex

	wg sync.WaitGroup
}

func New(remote RemoteCart, st store.Store) *Synchronizer {
	return &Synchronizer{
		remote: remote,
		store:  st,
		now:    time.Now,
		cart:   *domain.EmptyCart(),
	}
}

// WithClock replaces the time source. Meant for tests.
func (s *Synchronizer) WithClock(now func() time.Time) *Synchronizer {
	s.now = now
	return s
}

// Load hydrates the cart at session start. The remote service is
// authoritative: on success its snapshot overwrites any stale local one.
// On failure the local snapshot becomes the working cart and the session
// is flagged offline.
func (s *Synchronizer) Load(ctx context.Context) error {
	remoteCart, err := s.remote.Get(ctx)
	if err == nil {
		s.mu.Lock()
		s.adoptLocked(remoteCart)
		s.offline = false
		snap := s.cart.Clone()
		s.mu.Unlock()

		if saveErr := s.store.Save(ctx, &snap); saveErr != nil {
			log.Printf("cartsync: could not persist cart snapshot: %v", saveErr)
		}
		return nil
	}

	log.Printf("cartsync: cart service unavailable, falling back to local snapshot: %v", err)
	local, loadErr := s.store.Load(ctx)
	if loadErr != nil {
		log.Printf("cartsync: local snapshot unavailable, starting empty: %v", loadErr)
		local = domain.EmptyCart()
	}

	s.mu.Lock()
	s.adoptLocked(local)
	s.offline = true
	s.mu.Unlock()
	return nil
}

// Snapshot returns a read-only copy of the current cart.
func (s *Synchronizer) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Offline reports whether the session started without the remote service.
func (s *Synchronizer) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

// Wait blocks until every in-flight reconciliation has finished. Tests and
// shutdown paths use it; normal operation never needs to.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

// Add puts quantity units of a product in the cart, merging into an
// existing line when one is present. The product annotation may be nil;
// a placeholder line is synthesized in that case.
func (s *Synchronizer) Add(ctx context.Context, productID int64, quantity int, product *domain.Product) {
	s.mu.Lock()
	applyAdd(&s.cart, productID, quantity, product, s.now())
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	s.reconcile(ctx, seq,
		func(ctx context.Context) (*domain.Cart, error) {
			return s.remote.Add(ctx, productID, quantity)
		},
		func(cart *domain.Cart) {
			applyAdd(cart, productID, quantity, product, s.now())
		})
}

// UpdateQuantity sets a line's quantity to an absolute value; zero or less
// removes the line.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	s.mu.Lock()
	applyUpdate(&s.cart, productID, quantity, s.now())
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	s.reconcile(ctx, seq,
		func(ctx context.Context) (*domain.Cart, error) {
			return s.remote.Update(ctx, productID, quantity)
		},
		func(cart *domain.Cart) {
			applyUpdate(cart, productID, quantity, s.now())
		})
}

// Remove drops a line from the cart; removing an absent product is a no-op.
func (s *Synchronizer) Remove(ctx context.Context, productID int64) {
	s.mu.Lock()
	applyRemove(&s.cart, productID, s.now())
	seq := s.nextSeqLocked()
	s.mu.Unlock()

	s.reconcile(ctx, seq,
		func(ctx context.Context) (*domain.Cart, error) {
			return s.remote.Remove(ctx, productID)
		},
		func(cart *domain.Cart) {
			applyRemove(cart, productID, s.now())
		})
}

// Clear empties the cart and erases the durable snapshot. The local erase
// happens whether or not the remote clear succeeds: clearing locally is
// exactly the fallback re-derivation of the same mutation.
func (s *Synchronizer) Clear(ctx context.Context) {
	s.mu.Lock()
	s.cart = *domain.EmptyCart()
	seq := s.nextSeqLocked()
	s.applied = seq
	s.mu.Unlock()

	// The caller's request context dies when its handler returns; the
	// remote clear must not die with it.
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.remote.Clear(ctx); err != nil {
			log.Printf("cartsync: remote clear failed: %v", err)
		}
		if err := s.store.Clear(ctx); err != nil {
			log.Printf("cartsync: could not erase cart snapshot: %v", err)
		}
	}()
}

// ClearLocal resets the in-memory cart and erases the snapshot without
// calling the remote service. Used when an external event reports that the
// remote cart was already emptied (checkout completed elsewhere).
func (s *Synchronizer) ClearLocal(ctx context.Context) {
	s.mu.Lock()
	s.cart = *domain.EmptyCart()
	seq := s.nextSeqLocked()
	s.applied = seq
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		log.Printf("cartsync: could not erase cart snapshot: %v", err)
	}
}

// reconcile runs the remote call asynchronously. A server snapshot is
// adopted only if no later mutation intent is pending (stale responses
// from overlapping round-trips are dropped instead of winning by arrival
// order). On failure the mutation is replayed onto the store's snapshot so
// the fallback baseline catches up with the optimistic state.
func (s *Synchronizer) reconcile(ctx context.Context, seq uint64, call func(context.Context) (*domain.Cart, error), replay func(*domain.Cart)) {
	// The caller's request context dies when its handler returns; the
	// reconciliation must not die with it.
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		remoteCart, err := call(ctx)
		if err != nil {
			log.Printf("cartsync: reconciliation failed, updating local baseline: %v", err)
			s.fallback(ctx, seq, replay)
			return
		}

		s.mu.Lock()
		if seq < s.applied {
			s.mu.Unlock()
			return
		}
		s.applied = seq
		// Adopt the server snapshot only when no later mutation intent is
		// pending; an older snapshot would briefly erase the newer edit.
		if remoteCart != nil && remoteCart.Items != nil && seq == s.seq {
			s.adoptLocked(remoteCart)
		}
		snap := s.cart.Clone()
		s.mu.Unlock()

		s.storeMu.Lock()
		err = s.store.Save(ctx, &snap)
		s.storeMu.Unlock()
		if err != nil {
			log.Printf("cartsync: could not persist cart snapshot: %v", err)
		}
	}()
}

func (s *Synchronizer) fallback(ctx context.Context, seq uint64, replay func(*domain.Cart)) {
	s.mu.Lock()
	stale := seq < s.applied
	s.mu.Unlock()
	if stale {
		// A later reconciliation already produced an authoritative
		// snapshot; re-deriving from this older mutation would regress it.
		return
	}

	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	base, err := s.store.Load(ctx)
	if err != nil {
		log.Printf("cartsync: could not load local baseline: %v", err)
		base = domain.EmptyCart()
	}
	replay(base)
	if err := s.store.Save(ctx, base); err != nil {
		log.Printf("cartsync: could not persist local baseline: %v", err)
	}
}

// adoptLocked replaces the in-memory cart with the given snapshot. The
// total is always recomputed from the items; a server-sent total is never
// trusted over the derivation.
func (s *Synchronizer) adoptLocked(cart *domain.Cart) {
	adopted := cart.Clone()
	if adopted.Items == nil {
		adopted.Items = []domain.CartLineItem{}
	}
	adopted.Total = pricing.CartTotal(adopted.Items, s.now())
	s.cart = adopted
}

func (s *Synchronizer) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

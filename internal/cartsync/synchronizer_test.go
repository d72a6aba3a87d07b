package cartsync

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

type mockRemote struct {
	m       sync.Mutex
	err     error
	getCart *domain.Cart
	// snapshot returned by mutation calls; nil means "no server snapshot".
	// Captured at call entry, so changing it mid-test only affects calls
	// that have not arrived yet.
	snapshot *domain.Cart
	// when set, the FIRST mutation call signals started (if any) and then
	// blocks until gate is closed. gate2/started2 do the same for the
	// SECOND call. Other calls pass straight through.
	gate     chan struct{}
	started  chan struct{}
	gate2    chan struct{}
	started2 chan struct{}
	// when set, mutation calls block until rendezvous of them have arrived.
	rendezvous int

	clearCalls  int
	clearCtxErr error
	mutations   int
	ctxErr      error // ctx.Err() observed by the most recent mutation call

	arrived chan struct{}
}

func (r *mockRemote) mutate(ctx context.Context) (*domain.Cart, error) {
	r.m.Lock()
	r.mutations++
	nth := r.mutations
	snapshot := r.snapshot
	err := r.err
	gate := r.gate
	started := r.started
	gate2 := r.gate2
	started2 := r.started2
	if r.rendezvous > 0 && r.arrived == nil {
		r.arrived = make(chan struct{})
	}
	arrived := r.arrived
	release := r.rendezvous > 0 && nth == r.rendezvous
	r.m.Unlock()

	switch {
	case nth == 1 && gate != nil:
		if started != nil {
			close(started)
		}
		<-gate
	case nth == 2 && gate2 != nil:
		if started2 != nil {
			close(started2)
		}
		<-gate2
	}
	if arrived != nil {
		if release {
			close(arrived)
		}
		<-arrived
	}

	r.m.Lock()
	r.ctxErr = ctx.Err()
	r.m.Unlock()

	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *mockRemote) Get(context.Context) (*domain.Cart, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.getCart, nil
}

func (r *mockRemote) Add(ctx context.Context, _ int64, _ int) (*domain.Cart, error) {
	return r.mutate(ctx)
}

func (r *mockRemote) Update(ctx context.Context, _ int64, _ int) (*domain.Cart, error) {
	return r.mutate(ctx)
}

func (r *mockRemote) Remove(ctx context.Context, _ int64) (*domain.Cart, error) {
	return r.mutate(ctx)
}

func (r *mockRemote) Clear(ctx context.Context) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.clearCalls++
	r.clearCtxErr = ctx.Err()
	return r.err
}

type mockStore struct {
	m       sync.Mutex
	cart    *domain.Cart
	loadErr error
	saveErr error
	cleared bool
}

func (s *mockStore) Load(context.Context) (*domain.Cart, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.cart == nil {
		return domain.EmptyCart(), nil
	}
	c := s.cart.Clone()
	return &c, nil
}

func (s *mockStore) Save(_ context.Context, cart *domain.Cart) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	c := cart.Clone()
	s.cart = &c
	return nil
}

func (s *mockStore) Clear(context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()
	s.cart = nil
	s.cleared = true
	return nil
}

func (s *mockStore) snapshot() *domain.Cart {
	s.m.Lock()
	defer s.m.Unlock()
	if s.cart == nil {
		return nil
	}
	c := s.cart.Clone()
	return &c
}

func plan() *domain.Product {
	return &domain.Product{
		ID:    1,
		Name:  "Unlimited Data Plan",
		Price: decimal.NewFromFloat(10.00),
	}
}

func TestAdd_OptimisticUpdateIsImmediate(t *testing.T) {
	remote := &mockRemote{gate: make(chan struct{})}
	s := New(remote, &mockStore{})

	s.Add(context.Background(), 1, 2, plan())

	// The reconciliation is still blocked; the snapshot must already
	// reflect the mutation.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)
	assert.True(t, snap.Total.Equal(decimal.NewFromFloat(20.00)), "got %s", snap.Total)

	close(remote.gate)
	s.Wait()
}

func TestAdd_SameProductMergesIntoOneLine(t *testing.T) {
	s := New(&mockRemote{}, &mockStore{})
	ctx := context.Background()

	s.Add(ctx, 1, 2, plan())
	s.Add(ctx, 1, 3, plan())
	s.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Quantity)
	assert.True(t, snap.Total.Equal(decimal.NewFromFloat(50.00)))
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	s := New(&mockRemote{}, &mockStore{})
	ctx := context.Background()

	s.Add(ctx, 1, 2, plan())
	s.UpdateQuantity(ctx, 1, 0)
	s.Wait()

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.True(t, snap.Total.IsZero())
}

func TestUpdateQuantity_SetsAbsoluteValue(t *testing.T) {
	s := New(&mockRemote{}, &mockStore{})
	ctx := context.Background()

	s.Add(ctx, 1, 2, plan())
	s.UpdateQuantity(ctx, 1, 7)
	s.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 7, snap.Items[0].Quantity)
}

func TestRemove_AbsentProductIsNoOp(t *testing.T) {
	s := New(&mockRemote{}, &mockStore{})
	ctx := context.Background()

	s.Add(ctx, 1, 2, plan())
	s.Wait()
	before := s.Snapshot()

	s.Remove(ctx, 99)
	s.Wait()

	after := s.Snapshot()
	assert.Equal(t, before.Items, after.Items)
	assert.True(t, before.Total.Equal(after.Total))
}

func TestAdd_WithoutProductInfoSynthesizesPlaceholder(t *testing.T) {
	s := New(&mockRemote{err: errors.New("cart service down")}, &mockStore{})

	s.Add(context.Background(), 42, 1, nil)
	s.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Product ID 42", snap.Items[0].Name)
	assert.True(t, snap.Items[0].UnitPrice.IsZero())
	assert.True(t, snap.Total.IsZero())
}

func TestReconciliationFailure_RederivesLocalBaseline(t *testing.T) {
	remote := &mockRemote{err: errors.New("cart service down")}
	st := &mockStore{}
	s := New(remote, st)

	s.Add(context.Background(), 1, 2, plan())
	s.Wait()

	// Optimistic state shows the item.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)

	// The store holds the same mutation, applied independently.
	persisted := st.snapshot()
	require.NotNil(t, persisted)
	require.Len(t, persisted.Items, 1)
	assert.Equal(t, int64(1), persisted.Items[0].ProductID)
	assert.Equal(t, 2, persisted.Items[0].Quantity)
	assert.True(t, persisted.Total.Equal(decimal.NewFromFloat(20.00)))
}

func TestReload_AfterOfflineMutationShowsSameCart(t *testing.T) {
	remote := &mockRemote{err: errors.New("cart service down")}
	st := &mockStore{}

	first := New(remote, st)
	first.Add(context.Background(), 1, 2, plan())
	first.Wait()

	// A new session with the remote still down hydrates from the store.
	second := New(remote, st)
	require.NoError(t, second.Load(context.Background()))

	assert.True(t, second.Offline())
	snap := second.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(1), snap.Items[0].ProductID)
	assert.True(t, snap.Total.Equal(decimal.NewFromFloat(20.00)))
}

func TestLoad_RemoteOverwritesStaleLocalSnapshot(t *testing.T) {
	stale := &domain.Cart{
		Items: []domain.CartLineItem{{ProductID: 9, Name: "Stale", UnitPrice: decimal.NewFromFloat(1), Quantity: 1}},
	}
	st := &mockStore{cart: stale}
	remote := &mockRemote{getCart: &domain.Cart{
		Items: []domain.CartLineItem{{ProductID: 1, Name: "Unlimited Data Plan", UnitPrice: decimal.NewFromFloat(10.00), Quantity: 3}},
	}}
	s := New(remote, st)

	require.NoError(t, s.Load(context.Background()))

	assert.False(t, s.Offline())
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(1), snap.Items[0].ProductID)
	assert.True(t, snap.Total.Equal(decimal.NewFromFloat(30.00)))

	// The authoritative snapshot replaced the stale persisted one.
	persisted := st.snapshot()
	require.NotNil(t, persisted)
	assert.Equal(t, int64(1), persisted.Items[0].ProductID)
}

func TestReconciliation_AdoptsServerSnapshot(t *testing.T) {
	server := &domain.Cart{
		Items: []domain.CartLineItem{
			{ProductID: 1, Name: "Unlimited Data Plan", UnitPrice: decimal.NewFromFloat(10.00), Quantity: 4},
		},
	}
	remote := &mockRemote{snapshot: server}
	s := New(remote, &mockStore{})

	s.Add(context.Background(), 1, 1, plan())
	s.Wait()

	// The server said quantity 4; its snapshot wins over the optimistic 1.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 4, snap.Items[0].Quantity)
	assert.True(t, snap.Total.Equal(decimal.NewFromFloat(40.00)))
}

func TestReconciliation_NoServerSnapshotKeepsOptimisticState(t *testing.T) {
	st := &mockStore{}
	s := New(&mockRemote{}, st)

	s.Add(context.Background(), 1, 2, plan())
	s.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 2, snap.Items[0].Quantity)

	persisted := st.snapshot()
	require.NotNil(t, persisted)
	assert.Equal(t, 2, persisted.Items[0].Quantity)
}

func TestReconciliation_StaleResponseIsDropped(t *testing.T) {
	staleServer := &domain.Cart{
		Items: []domain.CartLineItem{
			{ProductID: 1, Name: "Unlimited Data Plan", UnitPrice: decimal.NewFromFloat(10.00), Quantity: 1},
		},
	}
	gate := make(chan struct{})
	started := make(chan struct{})
	remote := &mockRemote{snapshot: staleServer, gate: gate, started: started}
	st := &mockStore{}
	s := New(remote, st)
	ctx := context.Background()

	// First mutation's reconciliation stalls holding an outdated snapshot.
	s.Add(ctx, 1, 1, plan())
	<-started

	// Second mutation completes first; no server snapshot, optimistic kept.
	remote.m.Lock()
	remote.snapshot = nil
	remote.m.Unlock()
	s.UpdateQuantity(ctx, 1, 5)

	// Wait until the second reconciliation has persisted its result, then
	// release the stalled first one.
	require.Eventually(t, func() bool {
		persisted := st.snapshot()
		return persisted != nil && len(persisted.Items) == 1 && persisted.Items[0].Quantity == 5
	}, time.Second, 5*time.Millisecond)
	close(gate)
	s.Wait()

	// The stale response must not have clobbered the newer quantity.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Quantity)
}

func TestReconciliation_OutlivesCallerContext(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	remote := &mockRemote{gate: gate, started: started}
	st := &mockStore{}
	s := New(remote, st)

	ctx, cancel := context.WithCancel(context.Background())
	s.Add(ctx, 1, 2, plan())
	<-started

	// The request context is gone before the remote call returns, as it is
	// whenever an HTTP handler hands off to the reconciliation.
	cancel()
	close(gate)
	s.Wait()

	remote.m.Lock()
	mutations := remote.mutations
	ctxErr := remote.ctxErr
	remote.m.Unlock()
	assert.Equal(t, 1, mutations)
	assert.NoError(t, ctxErr, "reconciliation ran on a dead context")

	persisted := st.snapshot()
	require.NotNil(t, persisted)
	require.Len(t, persisted.Items, 1)
	assert.Equal(t, 2, persisted.Items[0].Quantity)
}

func TestConcurrentFallbacks_BaselineKeepsBothMutations(t *testing.T) {
	// Both reconciliations fail, and neither fallback may start its
	// load-replay-save until both remote calls are in flight.
	remote := &mockRemote{err: errors.New("cart service down"), rendezvous: 2}
	st := &mockStore{}
	s := New(remote, st)
	ctx := context.Background()

	s.Add(ctx, 1, 2, plan())
	s.Add(ctx, 2, 1, &domain.Product{ID: 2, Name: "SIM Adapter", Price: decimal.NewFromFloat(5.00)})
	s.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Items, 2)

	persisted := st.snapshot()
	require.NotNil(t, persisted)
	require.Len(t, persisted.Items, 2, "baseline lost one of the overlapping mutations")
	assert.True(t, persisted.Total.Equal(decimal.NewFromFloat(25.00)), "got %s", persisted.Total)
}

func TestReconciliation_OlderResponseKeepsNewerPendingEdit(t *testing.T) {
	server := &domain.Cart{
		Items: []domain.CartLineItem{
			{ProductID: 1, Name: "Unlimited Data Plan", UnitPrice: decimal.NewFromFloat(10.00), Quantity: 4},
		},
	}
	gate := make(chan struct{})
	started := make(chan struct{})
	gate2 := make(chan struct{})
	started2 := make(chan struct{})
	remote := &mockRemote{snapshot: server, gate: gate, started: started, gate2: gate2, started2: started2}
	st := &mockStore{}
	s := New(remote, st)
	ctx := context.Background()

	// First mutation's round-trip stalls carrying the server's quantity 4.
	s.Add(ctx, 1, 1, plan())
	<-started

	// Second mutation sets quantity 5 and stalls too, with no snapshot.
	remote.m.Lock()
	remote.snapshot = nil
	remote.m.Unlock()
	s.UpdateQuantity(ctx, 1, 5)
	<-started2

	// The first response lands while the second edit is still pending. Its
	// snapshot predates that edit and must not surface, even briefly.
	close(gate)
	require.Eventually(t, func() bool {
		persisted := st.snapshot()
		return persisted != nil && len(persisted.Items) == 1 && persisted.Items[0].Quantity == 5
	}, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Quantity, "older server snapshot erased the pending edit")

	close(gate2)
	s.Wait()

	snap = s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 5, snap.Items[0].Quantity)
}

func TestClear_EmptiesCartAndErasesSnapshot(t *testing.T) {
	st := &mockStore{}
	remote := &mockRemote{}
	s := New(remote, st)
	ctx := context.Background()

	s.Add(ctx, 1, 2, plan())
	s.Wait()
	s.Clear(ctx)
	s.Wait()

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.True(t, snap.Total.IsZero())
	assert.True(t, st.cleared)
	assert.Equal(t, 1, remote.clearCalls)
}

func TestClear_RemoteFailureStillErasesLocalSnapshot(t *testing.T) {
	st := &mockStore{cart: &domain.Cart{
		Items: []domain.CartLineItem{{ProductID: 1, UnitPrice: decimal.NewFromFloat(10), Quantity: 1}},
	}}
	s := New(&mockRemote{err: errors.New("cart service down")}, st)

	s.Clear(context.Background())
	s.Wait()

	assert.True(t, st.cleared)
	assert.Nil(t, st.snapshot())
}

func TestClear_OutlivesCallerContext(t *testing.T) {
	st := &mockStore{}
	remote := &mockRemote{}
	s := New(remote, st)

	s.Add(context.Background(), 1, 2, plan())
	s.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Clear(ctx)
	s.Wait()

	remote.m.Lock()
	clearCtxErr := remote.clearCtxErr
	remote.m.Unlock()
	assert.NoError(t, clearCtxErr, "remote clear ran on a dead context")
	assert.True(t, st.cleared)
}

func TestClearLocal_DoesNotCallRemote(t *testing.T) {
	st := &mockStore{}
	remote := &mockRemote{}
	s := New(remote, st)
	ctx := context.Background()

	s.Add(ctx, 1, 2, plan())
	s.Wait()
	s.ClearLocal(ctx)

	assert.Empty(t, s.Snapshot().Items)
	assert.True(t, st.cleared)
	assert.Equal(t, 0, remote.clearCalls)
}

func TestSnapshot_TotalAlwaysDerivedFromItems(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	server := &domain.Cart{
		Items: []domain.CartLineItem{
			{
				ProductID:          1,
				UnitPrice:          decimal.NewFromFloat(10.00),
				Quantity:           2,
				DiscountPercentage: 50,
				DiscountExpiry:     &expiry,
			},
		},
		// A bogus server total must be ignored in favour of the derivation.
		Total: decimal.NewFromFloat(123.45),
	}
	remote := &mockRemote{getCart: server}
	s := New(remote, &mockStore{})

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.True(t, snap.Total.Equal(decimal.NewFromFloat(10.00)), "got %s", snap.Total)
}

package stock

import (
	"context"
	"errors"
	"testing"

	"backoffice-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore keeps products and the movement ledger in memory, mirroring the
// GormStore contract: conditional stock updates, all-or-nothing application,
// order-keyed idempotency.
type fakeStore struct {
	products   map[uint]*model.Product
	components map[uint][]model.BundleComponent
	ledger     []model.StockMovement
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   make(map[uint]*model.Product),
		components: make(map[uint][]model.BundleComponent),
	}
}

func (s *fakeStore) add(p *model.Product) {
	s.products[p.ID] = p
}

func (s *fakeStore) addComponent(parentID, componentID uint, required int) {
	s.components[parentID] = append(s.components[parentID], model.BundleComponent{
		ParentID:         parentID,
		ComponentID:      componentID,
		RequiredQuantity: required,
		Component:        s.products[componentID],
	})
}

func (s *fakeStore) Product(ctx context.Context, id uint) (*model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) Components(ctx context.Context, parentID uint) ([]model.BundleComponent, error) {
	comps := s.components[parentID]
	out := make([]model.BundleComponent, len(comps))
	for i, c := range comps {
		out[i] = c
		if p, ok := s.products[c.ComponentID]; ok {
			copied := *p
			out[i].Component = &copied
		}
	}
	return out, nil
}

func (s *fakeStore) ApplyMovements(ctx context.Context, movements []model.StockMovement) error {
	for _, m := range movements {
		if m.OrderID != nil {
			for _, existing := range s.ledger {
				if existing.OrderID != nil && *existing.OrderID == *m.OrderID && existing.Type == m.Type {
					return ErrAlreadyApplied
				}
			}
		}
	}
	// Sequential conditional updates with rollback, like the real
	// transaction: each write requires the snapshot to still hold.
	applied := make([]model.StockMovement, 0, len(movements))
	rollback := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			s.products[applied[i].ProductID].CurrentStock = applied[i].StockBefore
		}
	}
	for _, m := range movements {
		p, ok := s.products[m.ProductID]
		if !ok {
			rollback()
			return errors.New("record not found")
		}
		if p.CurrentStock != m.StockBefore {
			rollback()
			return ErrConcurrentModification
		}
		p.CurrentStock = m.StockAfter
		applied = append(applied, m)
	}
	s.ledger = append(s.ledger, movements...)
	return nil
}

func (s *fakeStore) OrderMovementsExist(ctx context.Context, orderID uint, movementType string) (bool, error) {
	for _, m := range s.ledger {
		if m.OrderID != nil && *m.OrderID == orderID && m.Type == movementType {
			return true, nil
		}
	}
	return false, nil
}

// bundleFixture is the §-scenario setup: bundle B needs 2×X (stock 5) and
// 1×Y (stock 1).
func bundleFixture() (*fakeStore, *Resolver) {
	store := newFakeStore()
	store.add(&model.Product{ID: 1, Name: "Bundle B", SKU: "B-1", IsBundle: true, CurrentStock: 99})
	store.add(&model.Product{ID: 2, Name: "Component X", SKU: "X-1", CurrentStock: 5, SalePrice: 10})
	store.add(&model.Product{ID: 3, Name: "Component Y", SKU: "Y-1", CurrentStock: 1, SalePrice: 20})
	store.addComponent(1, 2, 2)
	store.addComponent(1, 3, 1)
	return store, NewResolver(store, zap.NewNop())
}

func TestAvailabilityPlainProduct(t *testing.T) {
	store := newFakeStore()
	store.add(&model.Product{ID: 7, CurrentStock: 12})
	r := NewResolver(store, zap.NewNop())

	avail, err := r.Availability(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 12, avail.Available)
	assert.False(t, avail.IsBundle)
	assert.Zero(t, avail.LimitingComponent)
}

func TestAvailabilityBundleFloorLaw(t *testing.T) {
	_, r := bundleFixture()

	avail, err := r.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, avail.IsBundle)
	assert.Equal(t, 1, avail.Available)
	assert.Equal(t, uint(3), avail.LimitingComponent, "Y binds the bundle")
}

func TestAvailabilityUnconfiguredBundleIsZero(t *testing.T) {
	store := newFakeStore()
	store.add(&model.Product{ID: 1, IsBundle: true, CurrentStock: 50})
	r := NewResolver(store, zap.NewNop())

	avail, err := r.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, avail.Available, "unconfigured bundle must not look sellable")
}

func TestAvailabilityMonotonicity(t *testing.T) {
	store, r := bundleFixture()

	before, err := r.Availability(context.Background(), 1)
	require.NoError(t, err)

	store.products[3].CurrentStock--
	after, err := r.Availability(context.Background(), 1)
	require.NoError(t, err)

	assert.LessOrEqual(t, after.Available, before.Available)
}

func TestReserveForSalePlain(t *testing.T) {
	store := newFakeStore()
	store.add(&model.Product{ID: 7, CurrentStock: 10, SalePrice: 4})
	r := NewResolver(store, zap.NewNop())

	movements, err := r.ReserveForSale(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementTypeOut, movements[0].Type)
	assert.Equal(t, 3, movements[0].Quantity)
	assert.Equal(t, 10, movements[0].StockBefore)
	assert.Equal(t, 7, movements[0].StockAfter)
	assert.InDelta(t, 12, movements[0].TotalPrice, 0.001)

	// Movements are uncommitted: nothing changed yet.
	assert.Equal(t, 10, store.products[7].CurrentStock)
}

func TestReserveForSaleBundle(t *testing.T) {
	store, r := bundleFixture()

	movements, err := r.ReserveForSale(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, movements, 2, "one movement per component, none for the bundle")

	require.NoError(t, r.ApplyForOrder(context.Background(), 42, movements))

	assert.Equal(t, 3, store.products[2].CurrentStock)
	assert.Equal(t, 0, store.products[3].CurrentStock)
	assert.Equal(t, 99, store.products[1].CurrentStock, "bundle's own stock is untouched")
}

func TestReserveForSaleInsufficientNamesLimitingComponent(t *testing.T) {
	store, r := bundleFixture()

	movements, err := r.ReserveForSale(context.Background(), 1, 2)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, uint(1), insufficient.ProductID)
	assert.Equal(t, 2, insufficient.Requested)
	assert.Equal(t, 1, insufficient.Available)
	assert.Equal(t, uint(3), insufficient.LimitingComponent)

	// Movements are still computed for a backorder policy, but nothing is
	// applied until the caller commits them.
	assert.Len(t, movements, 2)
	assert.Equal(t, 5, store.products[2].CurrentStock)
	assert.Equal(t, 1, store.products[3].CurrentStock)
}

func TestReserveForSaleUnconfiguredBundle(t *testing.T) {
	store := newFakeStore()
	store.add(&model.Product{ID: 1, IsBundle: true})
	r := NewResolver(store, zap.NewNop())

	movements, err := r.ReserveForSale(context.Background(), 1, 1)

	var unconfigured *UnconfiguredBundleError
	require.ErrorAs(t, err, &unconfigured)
	assert.Equal(t, uint(1), unconfigured.ProductID)
	assert.Empty(t, movements)
}

func TestReserveForSaleZeroIsNoop(t *testing.T) {
	_, r := bundleFixture()

	movements, err := r.ReserveForSale(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestReserveForSaleNegativeFailsLoudly(t *testing.T) {
	_, r := bundleFixture()

	_, err := r.ReserveForSale(context.Background(), 1, -1)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestReserveForReturnPlain(t *testing.T) {
	store := newFakeStore()
	store.add(&model.Product{ID: 7, CurrentStock: 4, SalePrice: 4})
	r := NewResolver(store, zap.NewNop())

	movements, err := r.ReserveForReturn(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementTypeReturn, movements[0].Type)
	assert.Equal(t, 4, movements[0].StockBefore)
	assert.Equal(t, 7, movements[0].StockAfter)

	// Movements are uncommitted: nothing changed yet.
	assert.Equal(t, 4, store.products[7].CurrentStock)
}

func TestReserveForReturnRestoresBundleComponents(t *testing.T) {
	store, r := bundleFixture()
	ctx := context.Background()

	sale, err := r.ReserveForSale(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.ApplyForOrder(ctx, 42, sale))
	require.Equal(t, 3, store.products[2].CurrentStock)
	require.Equal(t, 0, store.products[3].CurrentStock)

	ret, err := r.ReserveForReturn(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, ret, 2, "one return movement per component")
	require.NoError(t, r.ApplyForOrder(ctx, 42, ret))

	assert.Equal(t, 5, store.products[2].CurrentStock)
	assert.Equal(t, 1, store.products[3].CurrentStock)
	assert.Equal(t, 99, store.products[1].CurrentStock, "bundle's own stock is untouched")
}

func TestReserveForReturnIsIdempotentPerOrder(t *testing.T) {
	store, r := bundleFixture()
	ctx := context.Background()

	sale, err := r.ReserveForSale(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.ApplyForOrder(ctx, 42, sale))

	ret, err := r.ReserveForReturn(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.ApplyForOrder(ctx, 42, ret))

	again, err := r.ReserveForReturn(ctx, 1, 1)
	require.NoError(t, err)
	err = r.ApplyForOrder(ctx, 42, again)
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	assert.Equal(t, 5, store.products[2].CurrentStock, "second return must not restock again")
	assert.Equal(t, 1, store.products[3].CurrentStock)
}

func TestReserveForReturnEdgeQuantities(t *testing.T) {
	_, r := bundleFixture()
	ctx := context.Background()

	movements, err := r.ReserveForReturn(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, movements)

	_, err = r.ReserveForReturn(ctx, 1, -1)
	assert.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestSaleApplied(t *testing.T) {
	_, r := bundleFixture()
	ctx := context.Background()

	sold, err := r.SaleApplied(ctx, 42)
	require.NoError(t, err)
	assert.False(t, sold)

	sale, err := r.ReserveForSale(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.ApplyForOrder(ctx, 42, sale))

	sold, err = r.SaleApplied(ctx, 42)
	require.NoError(t, err)
	assert.True(t, sold)
}

func TestApplyForOrderIsIdempotent(t *testing.T) {
	store, r := bundleFixture()
	ctx := context.Background()

	movements, err := r.ReserveForSale(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.ApplyForOrder(ctx, 42, movements))

	again, _ := r.ReserveForSale(ctx, 1, 1)
	err = r.ApplyForOrder(ctx, 42, again)
	assert.ErrorIs(t, err, ErrAlreadyApplied)

	assert.Equal(t, 3, store.products[2].CurrentStock, "second application must not decrement")
	assert.Equal(t, 0, store.products[3].CurrentStock)
}

func TestApplyForOrderDetectsConcurrentModification(t *testing.T) {
	store, r := bundleFixture()
	ctx := context.Background()

	movements, err := r.ReserveForSale(ctx, 1, 1)
	require.NoError(t, err)

	// Another sale slipped in between the read and the write.
	store.products[2].CurrentStock = 4

	err = r.ApplyForOrder(ctx, 42, movements)
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.Equal(t, 1, store.products[3].CurrentStock, "nothing partially applied")
	assert.Empty(t, store.ledger)
}

func TestManualAdjust(t *testing.T) {
	store := newFakeStore()
	store.add(&model.Product{ID: 7, CurrentStock: 10, PurchasePrice: 2})
	r := NewResolver(store, zap.NewNop())
	ctx := context.Background()

	movement, err := r.ManualAdjust(ctx, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, model.MovementTypeAdjustIn, movement.Type)
	assert.Equal(t, 15, store.products[7].CurrentStock)

	movement, err = r.ManualAdjust(ctx, 7, -3)
	require.NoError(t, err)
	assert.Equal(t, model.MovementTypeAdjustOut, movement.Type)
	assert.Equal(t, 3, movement.Quantity)
	assert.Equal(t, 12, store.products[7].CurrentStock)

	movement, err = r.ManualAdjust(ctx, 7, 0)
	require.NoError(t, err)
	assert.Nil(t, movement, "zero delta records nothing")
}

func TestMovementLedgerSnapshotInvariant(t *testing.T) {
	store, r := bundleFixture()
	ctx := context.Background()

	movements, err := r.ReserveForSale(ctx, 1, 1)
	require.NoError(t, err)
	require.NoError(t, r.ApplyForOrder(ctx, 42, movements))

	for _, m := range store.ledger {
		assert.Equal(t, m.StockBefore+model.MovementSign(m.Type)*m.Quantity, m.StockAfter)
		require.NotNil(t, m.OrderID)
		assert.Equal(t, uint(42), *m.OrderID)
	}
}

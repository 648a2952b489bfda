package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"backoffice-service/internal/courier"
	"backoffice-service/internal/invoice"
	"backoffice-service/internal/model"
	"backoffice-service/internal/settings"
	"backoffice-service/internal/stock"
	"backoffice-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory Store for both orders and products.
type fakeStore struct {
	orders    map[uint]*model.Order
	shipments []model.Shipment
	products  map[string]*model.Product // by SKU

	failCourierUpdate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[uint]*model.Order),
		products: make(map[string]*model.Product),
	}
}

func (s *fakeStore) Order(ctx context.Context, id uint) (*model.Order, error) {
	ord, ok := s.orders[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *ord
	return &copied, nil
}

func (s *fakeStore) UpdateOrderStatus(ctx context.Context, id uint, status string) error {
	s.orders[id].Status = status
	return nil
}

func (s *fakeStore) UpdateOrderCourier(ctx context.Context, id uint, courierID, waybillNumber, trackingURL string) error {
	if s.failCourierUpdate != nil {
		return s.failCourierUpdate
	}
	ord := s.orders[id]
	ord.CourierID = courierID
	ord.WaybillNumber = waybillNumber
	ord.TrackingURL = trackingURL
	return nil
}

func (s *fakeStore) CreateShipment(ctx context.Context, shipment *model.Shipment) error {
	shipment.ID = uint(len(s.shipments) + 1)
	s.shipments = append(s.shipments, *shipment)
	return nil
}

func (s *fakeStore) Shipments(ctx context.Context, orderID uint) ([]model.Shipment, error) {
	var out []model.Shipment
	for _, sh := range s.shipments {
		if sh.OrderID == orderID {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *fakeStore) ProductBySKU(ctx context.Context, sku string) (*model.Product, error) {
	p, ok := s.products[sku]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *p
	return &copied, nil
}

// fakeStockStore backs a real stock.Resolver.
type fakeStockStore struct {
	products   map[uint]*model.Product
	components map[uint][]model.BundleComponent
	ledger     []model.StockMovement
}

func (s *fakeStockStore) Product(ctx context.Context, id uint) (*model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStockStore) Components(ctx context.Context, parentID uint) ([]model.BundleComponent, error) {
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

func (s *fakeStockStore) ApplyMovements(ctx context.Context, movements []model.StockMovement) error {
	for _, m := range movements {
		if m.OrderID != nil {
			for _, existing := range s.ledger {
				if existing.OrderID != nil && *existing.OrderID == *m.OrderID && existing.Type == m.Type {
					return stock.ErrAlreadyApplied
				}
			}
		}
	}
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
			return stock.ErrConcurrentModification
		}
		p.CurrentStock = m.StockAfter
		applied = append(applied, m)
	}
	s.ledger = append(s.ledger, movements...)
	return nil
}

func (s *fakeStockStore) OrderMovementsExist(ctx context.Context, orderID uint, movementType string) (bool, error) {
	for _, m := range s.ledger {
		if m.OrderID != nil && *m.OrderID == orderID && m.Type == movementType {
			return true, nil
		}
	}
	return false, nil
}

// fakeStatuses serves the seeded catalog without a database.
type fakeStatuses struct{}

func (fakeStatuses) Lookup(ctx context.Context, name string) (*model.OrderStatus, error) {
	for _, s := range model.SeedStatuses() {
		if s.Name == name {
			status := s
			return &status, nil
		}
	}
	return nil, fmt.Errorf("%w %q", settings.ErrUnknownStatus, name)
}

// fakeGateway is a scriptable courier adapter.
type fakeGateway struct {
	receipt *courier.ShipmentReceipt
	err     error
	calls   int
}

func (g *fakeGateway) CreateShipment(ctx context.Context, req courier.ShipmentRequest) (*courier.ShipmentReceipt, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.receipt, nil
}

func (g *fakeGateway) Label(ctx context.Context, waybillNumber string) ([]byte, error) {
	return []byte("label"), nil
}

func (g *fakeGateway) CalculatePrice(ctx context.Context, params courier.PriceParams) (float64, error) {
	return 6.50, nil
}

// fakeInvoiceStore backs a real invoice.Issuer.
type fakeInvoiceStore struct {
	next     int64
	invoices []model.Invoice
}

func (s *fakeInvoiceStore) Issue(ctx context.Context, inv *model.Invoice) error {
	inv.Number = s.next
	s.next++
	s.invoices = append(s.invoices, *inv)
	return nil
}

func (s *fakeInvoiceStore) ListByOrder(ctx context.Context, orderID uint) ([]model.Invoice, error) {
	return nil, nil
}

func (s *fakeInvoiceStore) List(ctx context.Context) ([]model.Invoice, error) {
	return nil, nil
}

type fixture struct {
	store      *fakeStore
	stockStore *fakeStockStore
	gateway    *fakeGateway
	coord      *Coordinator
}

func newFixture(policy Policy) *fixture {
	store := newFakeStore()
	stockStore := &fakeStockStore{
		products:   make(map[uint]*model.Product),
		components: make(map[uint][]model.BundleComponent),
	}
	gateway := &fakeGateway{receipt: &courier.ShipmentReceipt{
		WaybillNumber: "WB-0001",
		TrackingURL:   "https://track.example/WB-0001",
	}}

	registry := courier.NewRegistry()
	registry.Register("speedy", gateway)

	issuer := invoice.NewIssuer(&fakeInvoiceStore{next: 1},
		&config.InvoiceConfig{SellerName: "Back Office Ltd", TaxRate: 0.20},
		zap.NewNop())

	resolver := stock.NewResolver(stockStore, zap.NewNop())
	coord := NewCoordinator(store, resolver, registry, issuer, fakeStatuses{}, policy, zap.NewNop())

	return &fixture{store: store, stockStore: stockStore, gateway: gateway, coord: coord}
}

// seedOrder sets up a two-line order: 2× Jacket and a bundle Gift Set made
// of 1× Jacket and 1× Hat.
func (f *fixture) seedOrder() {
	jacket := &model.Product{ID: 1, Name: "Jacket", SKU: "WJ-100", CurrentStock: 10, SalePrice: 50}
	hat := &model.Product{ID: 2, Name: "Hat", SKU: "HT-5", CurrentStock: 4, SalePrice: 10}
	giftSet := &model.Product{ID: 3, Name: "Gift Set", SKU: "GS-1", IsBundle: true}

	for _, p := range []*model.Product{jacket, hat, giftSet} {
		f.store.products[p.SKU] = p
		f.stockStore.products[p.ID] = p
	}
	f.stockStore.components[3] = []model.BundleComponent{
		{ParentID: 3, ComponentID: 1, RequiredQuantity: 1},
		{ParentID: 3, ComponentID: 2, RequiredQuantity: 1},
	}

	f.store.orders[42] = &model.Order{
		ID:            42,
		CustomerName:  "Ana P",
		CustomerPhone: "+359888000111",
		Address:       "2 Main St",
		ProductName:   "Jacket (x2), Gift Set",
		CatalogNumber: "WJ-100, GS-1",
		Quantity:      3,
		TotalPrice:    160,
		Status:        model.StatusConfirmed,
	}
}

func TestChangeStatusPlainLabelChange(t *testing.T) {
	f := newFixture(Policy{AllowMultipleActiveShipments: true})
	f.seedOrder()

	result, err := f.coord.ChangeStatus(context.Background(), 42, model.StatusProcessing)
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, result.From)
	assert.Equal(t, model.StatusProcessing, result.To)
	assert.False(t, result.StockApplied)
	assert.Equal(t, model.StatusProcessing, f.store.orders[42].Status)
	assert.Equal(t, 10, f.stockStore.products[1].CurrentStock, "stock untouched")
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()

	_, err := f.coord.ChangeStatus(context.Background(), 42, "Teleported")
	require.ErrorIs(t, err, settings.ErrUnknownStatus)
	assert.Equal(t, model.StatusConfirmed, f.store.orders[42].Status)
}

func TestShipTriggerDecrementsStock(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()

	result, err := f.coord.ChangeStatus(context.Background(), 42, model.StatusShipped)
	require.NoError(t, err)

	assert.True(t, result.StockApplied)
	assert.Empty(t, result.Warnings)
	// 2× jacket sold directly plus 1× via the gift set, 1× hat via the set.
	assert.Equal(t, 7, f.stockStore.products[1].CurrentStock)
	assert.Equal(t, 3, f.stockStore.products[2].CurrentStock)
	assert.Equal(t, model.StatusShipped, f.store.orders[42].Status)
}

func TestShipTriggerIsIdempotentPerOrder(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()
	ctx := context.Background()

	_, err := f.coord.ChangeStatus(ctx, 42, model.StatusShipped)
	require.NoError(t, err)

	// Re-entering the same status must not double-decrement.
	result, err := f.coord.ChangeStatus(ctx, 42, model.StatusShipped)
	require.NoError(t, err)

	assert.False(t, result.StockApplied)
	assert.NotEmpty(t, result.Warnings)
	assert.Equal(t, 7, f.stockStore.products[1].CurrentStock)
	assert.Equal(t, 3, f.stockStore.products[2].CurrentStock)
}

func TestShipTriggerInsufficientStockWarnsButProceeds(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()
	f.stockStore.products[1].CurrentStock = 1

	result, err := f.coord.ChangeStatus(context.Background(), 42, model.StatusShipped)
	require.NoError(t, err)

	assert.Equal(t, model.StatusShipped, f.store.orders[42].Status, "shortfall does not block the transition")
	assert.NotEmpty(t, result.Warnings)
	assert.True(t, result.StockApplied, "backorder is allowed: movements still commit")
	assert.Equal(t, -2, f.stockStore.products[1].CurrentStock)
}

func TestShipTriggerSkipsUnknownSKUs(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()
	f.store.orders[42].ProductName = "Jacket (x2), Mystery Item"
	f.store.orders[42].CatalogNumber = "WJ-100, NOPE-1"

	result, err := f.coord.ChangeStatus(context.Background(), 42, model.StatusShipped)
	require.NoError(t, err)

	assert.True(t, result.StockApplied)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "NOPE-1")
	assert.Equal(t, 8, f.stockStore.products[1].CurrentStock, "known line still decremented")
}

func TestReturnedRestocksShippedOrder(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()
	ctx := context.Background()

	_, err := f.coord.ChangeStatus(ctx, 42, model.StatusShipped)
	require.NoError(t, err)
	require.Equal(t, 7, f.stockStore.products[1].CurrentStock)
	require.Equal(t, 3, f.stockStore.products[2].CurrentStock)

	result, err := f.coord.ChangeStatus(ctx, 42, model.StatusReturned)
	require.NoError(t, err)

	assert.True(t, result.StockRestocked)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 10, f.stockStore.products[1].CurrentStock, "direct and bundled jackets come back")
	assert.Equal(t, 4, f.stockStore.products[2].CurrentStock)
	assert.Equal(t, model.StatusReturned, f.store.orders[42].Status)
}

func TestReturnedWithoutShipmentRestocksNothing(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()

	result, err := f.coord.ChangeStatus(context.Background(), 42, model.StatusReturned)
	require.NoError(t, err)

	assert.False(t, result.StockRestocked)
	assert.NotEmpty(t, result.Warnings)
	assert.Equal(t, 10, f.stockStore.products[1].CurrentStock, "nothing left, nothing comes back")
	assert.Equal(t, 4, f.stockStore.products[2].CurrentStock)
	assert.Equal(t, model.StatusReturned, f.store.orders[42].Status)
}

func TestReturnedIsIdempotentPerOrder(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()
	ctx := context.Background()

	_, err := f.coord.ChangeStatus(ctx, 42, model.StatusShipped)
	require.NoError(t, err)
	_, err = f.coord.ChangeStatus(ctx, 42, model.StatusReturned)
	require.NoError(t, err)

	// Re-entering the returned status must not restock twice.
	result, err := f.coord.ChangeStatus(ctx, 42, model.StatusReturned)
	require.NoError(t, err)

	assert.False(t, result.StockRestocked)
	assert.NotEmpty(t, result.Warnings)
	assert.Equal(t, 10, f.stockStore.products[1].CurrentStock)
	assert.Equal(t, 4, f.stockStore.products[2].CurrentStock)
}

func TestCreateShipmentUpdatesOrder(t *testing.T) {
	f := newFixture(Policy{AllowMultipleActiveShipments: true})
	f.seedOrder()

	shipment, err := f.coord.CreateShipment(context.Background(), 42, "speedy", ShipmentParams{
		SenderName:    "Back Office Ltd",
		RecipientCity: "Sofia",
		CODAmount:     160,
		Weight:        1.2,
	})
	require.NoError(t, err)

	assert.Equal(t, "WB-0001", shipment.WaybillNumber)
	assert.Equal(t, "Ana P", shipment.RecipientName, "recipient snapshot comes from the order")
	assert.Equal(t, model.ShipmentStatusRequested, shipment.Status)

	ord := f.store.orders[42]
	assert.Equal(t, "speedy", ord.CourierID)
	assert.Equal(t, "WB-0001", ord.WaybillNumber)
	assert.Equal(t, "https://track.example/WB-0001", ord.TrackingURL)
}

func TestCreateShipmentGatewayFailureLeavesOrderUntouched(t *testing.T) {
	f := newFixture(Policy{AllowMultipleActiveShipments: true})
	f.seedOrder()
	f.gateway.err = errors.New("courier api timeout")

	_, err := f.coord.CreateShipment(context.Background(), 42, "speedy", ShipmentParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "courier api timeout")

	ord := f.store.orders[42]
	assert.Empty(t, ord.CourierID)
	assert.Empty(t, ord.WaybillNumber)
	assert.Empty(t, ord.TrackingURL, "no partial tracking reference is ever written")
	assert.Empty(t, f.store.shipments)
}

func TestCreateShipmentUnknownCourier(t *testing.T) {
	f := newFixture(Policy{AllowMultipleActiveShipments: true})
	f.seedOrder()

	_, err := f.coord.CreateShipment(context.Background(), 42, "pigeon", ShipmentParams{})
	require.Error(t, err)
	assert.Zero(t, f.gateway.calls)
}

func TestCreateShipmentSingleActivePolicy(t *testing.T) {
	f := newFixture(Policy{AllowMultipleActiveShipments: false})
	f.seedOrder()
	ctx := context.Background()

	_, err := f.coord.CreateShipment(ctx, 42, "speedy", ShipmentParams{})
	require.NoError(t, err)

	_, err = f.coord.CreateShipment(ctx, 42, "speedy", ShipmentParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "active shipment")
	assert.Len(t, f.store.shipments, 1)
}

func TestCreateShipmentMultipleAllowedByDefaultPolicy(t *testing.T) {
	f := newFixture(Policy{AllowMultipleActiveShipments: true})
	f.seedOrder()
	ctx := context.Background()

	_, err := f.coord.CreateShipment(ctx, 42, "speedy", ShipmentParams{})
	require.NoError(t, err)
	_, err = f.coord.CreateShipment(ctx, 42, "speedy", ShipmentParams{})
	require.NoError(t, err)
	assert.Len(t, f.store.shipments, 2)
}

func TestIssueInvoiceConsumesFreshNumbers(t *testing.T) {
	f := newFixture(Policy{})
	f.seedOrder()
	ctx := context.Background()

	first, err := f.coord.IssueInvoice(ctx, 42, invoice.Request{})
	require.NoError(t, err)
	second, err := f.coord.IssueInvoice(ctx, 42, invoice.Request{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
}

// Package stock computes availability and stock movements for plain and
// bundle products. A bundle's availability is always derived from its
// components' stock; the bundle's own stock field is informational only.
package stock

import (
	"context"

	"backoffice-service/internal/model"

	"go.uber.org/zap"
)

// Store is the persistence boundary the resolver works against.
type Store interface {
	Product(ctx context.Context, id uint) (*model.Product, error)
	// Components returns a bundle's component associations with the
	// component products loaded.
	Components(ctx context.Context, parentID uint) ([]model.BundleComponent, error)
	// ApplyMovements commits movements atomically: every product's
	// current_stock must still equal the movement's StockBefore snapshot
	// (ErrConcurrentModification otherwise), no referenced order may already
	// have ledger entries of the same type (ErrAlreadyApplied), and the
	// ledger rows are appended in the same transaction.
	ApplyMovements(ctx context.Context, movements []model.StockMovement) error
	// OrderMovementsExist reports whether the ledger already holds
	// movements of the given type for the order.
	OrderMovementsExist(ctx context.Context, orderID uint, movementType string) (bool, error)
}

// Availability is the answer to "can this product be sold right now".
type Availability struct {
	ProductID uint `json:"product_id"`
	Available int  `json:"available"`
	IsBundle  bool `json:"is_bundle"`
	// LimitingComponent is the component product whose stock binds the
	// bundle's availability; zero for plain products.
	LimitingComponent uint `json:"limiting_component,omitempty"`
}

// Resolver answers availability questions and produces stock movements.
type Resolver struct {
	store Store
	log   *zap.Logger
}

// NewResolver creates a resolver over the given store.
func NewResolver(store Store, log *zap.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Availability computes a product's effective availability. For a bundle it
// is the minimum over components of floor(componentStock / requiredQuantity);
// a bundle with no components is reported as unavailable. Inactive components
// still count: deactivation hides a product from sale, it does not remove it
// from bundles already configured.
func (r *Resolver) Availability(ctx context.Context, productID uint) (*Availability, error) {
	product, err := r.store.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.IsBundle {
		return &Availability{ProductID: productID, Available: product.CurrentStock}, nil
	}

	components, err := r.store.Components(ctx, productID)
	if err != nil {
		return nil, err
	}

	avail := &Availability{ProductID: productID, IsBundle: true}
	if len(components) == 0 {
		return avail, nil
	}

	for i, comp := range components {
		if comp.RequiredQuantity < 1 || comp.Component == nil {
			avail.Available = 0
			avail.LimitingComponent = comp.ComponentID
			return avail, nil
		}
		n := comp.Component.CurrentStock / comp.RequiredQuantity
		if n < 0 {
			n = 0
		}
		if i == 0 || n < avail.Available {
			avail.Available = n
			avail.LimitingComponent = comp.ComponentID
		}
	}

	return avail, nil
}

// ReserveForSale computes the uncommitted movements for selling quantity
// units of a product. A plain product yields one outbound movement; a bundle
// yields one outbound movement per component and none for the bundle itself.
//
// When the requested quantity exceeds availability the movements are still
// returned alongside an *InsufficientStockError, so the caller can choose
// between blocking the sale and shipping with backorder. Quantity zero is a
// no-op; a negative quantity is rejected with ErrNegativeQuantity.
func (r *Resolver) ReserveForSale(ctx context.Context, productID uint, quantity int) ([]model.StockMovement, error) {
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	if quantity == 0 {
		return nil, nil
	}

	product, err := r.store.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.IsBundle {
		movement := model.StockMovement{
			ProductID:   product.ID,
			Type:        model.MovementTypeOut,
			Quantity:    quantity,
			StockBefore: product.CurrentStock,
			StockAfter:  product.CurrentStock - quantity,
			UnitPrice:   product.SalePrice,
			TotalPrice:  product.SalePrice * float64(quantity),
		}
		if product.CurrentStock < quantity {
			return []model.StockMovement{movement}, &InsufficientStockError{
				ProductID: productID,
				Requested: quantity,
				Available: product.CurrentStock,
			}
		}
		return []model.StockMovement{movement}, nil
	}

	components, err := r.store.Components(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, &UnconfiguredBundleError{ProductID: productID}
	}

	avail, err := r.Availability(ctx, productID)
	if err != nil {
		return nil, err
	}

	movements := make([]model.StockMovement, 0, len(components))
	for _, comp := range components {
		if comp.Component == nil {
			return nil, &UnconfiguredBundleError{ProductID: productID}
		}
		needed := quantity * comp.RequiredQuantity
		movements = append(movements, model.StockMovement{
			ProductID:   comp.ComponentID,
			Type:        model.MovementTypeOut,
			Quantity:    needed,
			StockBefore: comp.Component.CurrentStock,
			StockAfter:  comp.Component.CurrentStock - needed,
			UnitPrice:   comp.Component.SalePrice,
			TotalPrice:  comp.Component.SalePrice * float64(needed),
		})
	}

	if avail.Available < quantity {
		return movements, &InsufficientStockError{
			ProductID:         productID,
			Requested:         quantity,
			Available:         avail.Available,
			LimitingComponent: avail.LimitingComponent,
		}
	}
	return movements, nil
}

// ReserveForReturn computes the uncommitted inbound movements for
// restocking quantity units of a returned product. It mirrors ReserveForSale
// with the stock delta reversed; there is no shortage condition, a return
// is always accepted. Quantity zero is a no-op; a negative quantity is
// rejected with ErrNegativeQuantity.
func (r *Resolver) ReserveForReturn(ctx context.Context, productID uint, quantity int) ([]model.StockMovement, error) {
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	if quantity == 0 {
		return nil, nil
	}

	product, err := r.store.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.IsBundle {
		return []model.StockMovement{{
			ProductID:   product.ID,
			Type:        model.MovementTypeReturn,
			Quantity:    quantity,
			StockBefore: product.CurrentStock,
			StockAfter:  product.CurrentStock + quantity,
			UnitPrice:   product.SalePrice,
			TotalPrice:  product.SalePrice * float64(quantity),
		}}, nil
	}

	components, err := r.store.Components(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(components) == 0 {
		return nil, &UnconfiguredBundleError{ProductID: productID}
	}

	movements := make([]model.StockMovement, 0, len(components))
	for _, comp := range components {
		if comp.Component == nil {
			return nil, &UnconfiguredBundleError{ProductID: productID}
		}
		returned := quantity * comp.RequiredQuantity
		movements = append(movements, model.StockMovement{
			ProductID:   comp.ComponentID,
			Type:        model.MovementTypeReturn,
			Quantity:    returned,
			StockBefore: comp.Component.CurrentStock,
			StockAfter:  comp.Component.CurrentStock + returned,
			UnitPrice:   comp.Component.SalePrice,
			TotalPrice:  comp.Component.SalePrice * float64(returned),
		})
	}
	return movements, nil
}

// SaleApplied reports whether the order's outbound movements were committed.
// A return only restocks what actually left the warehouse.
func (r *Resolver) SaleApplied(ctx context.Context, orderID uint) (bool, error) {
	return r.store.OrderMovementsExist(ctx, orderID, model.MovementTypeOut)
}

// ApplyForOrder commits an order's movements exactly once per movement type.
// The order id is stamped onto every movement and, together with the type,
// doubles as the idempotency key: the sale and the return of one order each
// apply once, a repeat of either returns ErrAlreadyApplied.
func (r *Resolver) ApplyForOrder(ctx context.Context, orderID uint, movements []model.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	for _, movementType := range distinctTypes(movements) {
		applied, err := r.store.OrderMovementsExist(ctx, orderID, movementType)
		if err != nil {
			return err
		}
		if applied {
			return ErrAlreadyApplied
		}
	}

	// A product can appear more than once in one order (sold directly and
	// again through a bundle). Each movement was computed from the same
	// snapshot, so later movements for the same product are rebased onto the
	// running stock level; otherwise the conditional writes would collide.
	running := make(map[uint]int)
	for i := range movements {
		if prev, ok := running[movements[i].ProductID]; ok {
			delta := movements[i].StockAfter - movements[i].StockBefore
			movements[i].StockBefore = prev
			movements[i].StockAfter = prev + delta
		}
		running[movements[i].ProductID] = movements[i].StockAfter

		id := orderID
		movements[i].OrderID = &id
	}

	if err := r.store.ApplyMovements(ctx, movements); err != nil {
		return err
	}

	r.log.Info("stock movements applied",
		zap.Uint("order_id", orderID),
		zap.Int("movements", len(movements)))
	return nil
}

// ManualAdjust records a manual stock correction for a plain product and
// commits it immediately. Positive delta books adjust_in, negative adjust_out.
func (r *Resolver) ManualAdjust(ctx context.Context, productID uint, delta int) (*model.StockMovement, error) {
	if delta == 0 {
		return nil, nil
	}

	product, err := r.store.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	movementType := model.MovementTypeAdjustIn
	quantity := delta
	if delta < 0 {
		movementType = model.MovementTypeAdjustOut
		quantity = -delta
	}

	movement := model.StockMovement{
		ProductID:   product.ID,
		Type:        movementType,
		Quantity:    quantity,
		StockBefore: product.CurrentStock,
		StockAfter:  product.CurrentStock + delta,
		UnitPrice:   product.PurchasePrice,
		TotalPrice:  product.PurchasePrice * float64(quantity),
	}

	if err := r.store.ApplyMovements(ctx, []model.StockMovement{movement}); err != nil {
		return nil, err
	}
	return &movement, nil
}

func distinctTypes(movements []model.StockMovement) []string {
	var types []string
	seen := make(map[string]bool)
	for _, m := range movements {
		if !seen[m.Type] {
			seen[m.Type] = true
			types = append(types, m.Type)
		}
	}
	return types
}

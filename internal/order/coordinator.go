// Package order coordinates the order status lifecycle and its side
// effects: the ship-trigger stock decrement, courier shipment creation, and
// invoice issuance. Status transitions themselves are flat label changes
// over an open, admin-configurable status set; the side effects carry the
// actual consistency rules.
package order

import (
	"context"
	"errors"
	"fmt"

	"backoffice-service/internal/courier"
	"backoffice-service/internal/invoice"
	"backoffice-service/internal/lineitem"
	"backoffice-service/internal/model"
	"backoffice-service/internal/stock"

	"go.uber.org/zap"
)

// Store is the persistence boundary for the coordinator.
type Store interface {
	Order(ctx context.Context, id uint) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, status string) error
	// UpdateOrderCourier writes the courier reference and tracking fields.
	UpdateOrderCourier(ctx context.Context, id uint, courierID, waybillNumber, trackingURL string) error
	CreateShipment(ctx context.Context, shipment *model.Shipment) error
	Shipments(ctx context.Context, orderID uint) ([]model.Shipment, error)
	ProductBySKU(ctx context.Context, sku string) (*model.Product, error)
}

// StatusProvider resolves status names against the configured catalog.
type StatusProvider interface {
	Lookup(ctx context.Context, name string) (*model.OrderStatus, error)
}

// Policy holds the behavior flags that keep this implementation compatible
// with the historical permissive defaults.
type Policy struct {
	AllowMultipleActiveShipments bool
}

// TransitionResult reports what a status change did. Business-rule findings
// (insufficient stock, unconfigured bundles, unresolvable line items) are
// warnings, not errors: they never block the transition.
type TransitionResult struct {
	OrderID        uint     `json:"order_id"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	StockApplied   bool     `json:"stock_applied"`
	StockRestocked bool     `json:"stock_restocked"`
	Movements      int      `json:"movements"`
	Shortfalls     int      `json:"shortfalls"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ShipmentParams carries the caller-controlled parts of a shipment request.
// Recipient fields default to the order's own customer data.
type ShipmentParams struct {
	SenderName      string  `json:"sender_name"`
	SenderPhone     string  `json:"sender_phone"`
	RecipientCity   string  `json:"recipient_city"`
	PickupPointCode string  `json:"pickup_point_code,omitempty"`
	CODAmount       float64 `json:"cod_amount"`
	Weight          float64 `json:"weight"`
}

// Coordinator wires the codec, the stock resolver, and the external
// collaborators together.
type Coordinator struct {
	store    Store
	resolver *stock.Resolver
	couriers *courier.Registry
	issuer   *invoice.Issuer
	statuses StatusProvider
	policy   Policy
	log      *zap.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(store Store, resolver *stock.Resolver, couriers *courier.Registry,
	issuer *invoice.Issuer, statuses StatusProvider, policy Policy, log *zap.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		resolver: resolver,
		couriers: couriers,
		issuer:   issuer,
		statuses: statuses,
		policy:   policy,
		log:      log,
	}
}

// ChangeStatus moves an order to a new status. Any status may follow any
// other. Entering a status marked decrements_stock applies the order's
// outbound movements exactly once per order; one marked restocks_stock puts
// a previously decremented order's goods back, also exactly once. Hard
// persistence failures abort the transition, business-rule findings become
// warnings and the transition proceeds (the business allows shipping with
// backorder).
func (c *Coordinator) ChangeStatus(ctx context.Context, orderID uint, statusName string) (*TransitionResult, error) {
	ord, err := c.store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}

	status, err := c.statuses.Lookup(ctx, statusName)
	if err != nil {
		return nil, err
	}

	result := &TransitionResult{OrderID: orderID, From: ord.Status, To: status.Name}

	if status.DecrementsStock {
		if err := c.applyOrderStock(ctx, ord, result); err != nil {
			return nil, err
		}
	}
	if status.RestocksStock {
		if err := c.restockOrderStock(ctx, ord, result); err != nil {
			return nil, err
		}
	}

	if err := c.store.UpdateOrderStatus(ctx, orderID, status.Name); err != nil {
		return nil, err
	}

	c.log.Info("order status changed",
		zap.Uint("order_id", orderID),
		zap.String("from", result.From),
		zap.String("to", result.To),
		zap.Strings("warnings", result.Warnings))
	return result, nil
}

// applyOrderStock decodes the order's line items, reserves stock for each,
// and commits all resulting movements as one unit keyed by the order id.
func (c *Coordinator) applyOrderStock(ctx context.Context, ord *model.Order, result *TransitionResult) error {
	items, needsReview := lineitem.Decode(ord.ProductName, ord.CatalogNumber, ord.Quantity, ord.TotalPrice)
	if needsReview {
		result.Warnings = append(result.Warnings,
			"line items could not be parsed; no stock was decremented, review the order manually")
		return nil
	}

	var movements []model.StockMovement
	for _, item := range items {
		if item.CatalogNumber == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("line %q has no catalog number; stock not decremented for it", item.Name))
			continue
		}

		product, err := c.store.ProductBySKU(ctx, item.CatalogNumber)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("line %q: no product with SKU %q; stock not decremented for it", item.Name, item.CatalogNumber))
			continue
		}

		itemMovements, err := c.resolver.ReserveForSale(ctx, product.ID, item.Quantity)
		if err != nil {
			var insufficient *stock.InsufficientStockError
			var unconfigured *stock.UnconfiguredBundleError
			switch {
			case errors.As(err, &insufficient):
				// Backorder is allowed: keep the movements, record the shortfall.
				result.Shortfalls++
				result.Warnings = append(result.Warnings, insufficient.Error())
			case errors.As(err, &unconfigured):
				result.Warnings = append(result.Warnings, unconfigured.Error())
				continue
			default:
				return err
			}
		}
		movements = append(movements, itemMovements...)
	}

	if len(movements) == 0 {
		return nil
	}

	switch err := c.resolver.ApplyForOrder(ctx, ord.ID, movements); {
	case err == nil:
		result.StockApplied = true
		result.Movements = len(movements)
	case errors.Is(err, stock.ErrAlreadyApplied):
		// Re-entering the shipping status is a no-op, not a failure.
		result.Warnings = append(result.Warnings, "stock was already decremented for this order")
	default:
		return err
	}
	return nil
}

// restockOrderStock reverses a shipped order's stock decrement with return
// movements. It only runs against orders whose sale was actually committed:
// returning an order that never left the warehouse restocks nothing.
func (c *Coordinator) restockOrderStock(ctx context.Context, ord *model.Order, result *TransitionResult) error {
	sold, err := c.resolver.SaleApplied(ctx, ord.ID)
	if err != nil {
		return err
	}
	if !sold {
		result.Warnings = append(result.Warnings,
			"no stock was decremented for this order; nothing to restock")
		return nil
	}

	items, needsReview := lineitem.Decode(ord.ProductName, ord.CatalogNumber, ord.Quantity, ord.TotalPrice)
	if needsReview {
		result.Warnings = append(result.Warnings,
			"line items could not be parsed; no stock was restocked, review the order manually")
		return nil
	}

	var movements []model.StockMovement
	for _, item := range items {
		if item.CatalogNumber == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("line %q has no catalog number; stock not restocked for it", item.Name))
			continue
		}

		product, err := c.store.ProductBySKU(ctx, item.CatalogNumber)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("line %q: no product with SKU %q; stock not restocked for it", item.Name, item.CatalogNumber))
			continue
		}

		itemMovements, err := c.resolver.ReserveForReturn(ctx, product.ID, item.Quantity)
		if err != nil {
			var unconfigured *stock.UnconfiguredBundleError
			if errors.As(err, &unconfigured) {
				result.Warnings = append(result.Warnings, unconfigured.Error())
				continue
			}
			return err
		}
		movements = append(movements, itemMovements...)
	}

	if len(movements) == 0 {
		return nil
	}

	switch err := c.resolver.ApplyForOrder(ctx, ord.ID, movements); {
	case err == nil:
		result.StockRestocked = true
		result.Movements = len(movements)
	case errors.Is(err, stock.ErrAlreadyApplied):
		result.Warnings = append(result.Warnings, "stock was already restocked for this order")
	default:
		return err
	}
	return nil
}

// CreateShipment requests a waybill from the courier gateway and records it.
// The gateway call comes first: if it fails the order is left untouched and
// no partial tracking reference is ever written. The order-field update is
// the dependent second step; its failure is logged for manual
// reconciliation rather than undoing the courier-side shipment.
func (c *Coordinator) CreateShipment(ctx context.Context, orderID uint, courierID string, params ShipmentParams) (*model.Shipment, error) {
	ord, err := c.store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !c.policy.AllowMultipleActiveShipments {
		existing, err := c.store.Shipments(ctx, orderID)
		if err != nil {
			return nil, err
		}
		for _, s := range existing {
			if s.Status != model.ShipmentStatusDelivered && s.Status != model.ShipmentStatusCancelled {
				return nil, fmt.Errorf("order %d already has an active shipment %s", orderID, s.WaybillNumber)
			}
		}
	}

	gw, err := c.couriers.Gateway(courierID)
	if err != nil {
		return nil, err
	}

	receipt, err := gw.CreateShipment(ctx, courier.ShipmentRequest{
		OrderID:         ord.ID,
		SenderName:      params.SenderName,
		SenderPhone:     params.SenderPhone,
		RecipientName:   ord.CustomerName,
		RecipientPhone:  ord.CustomerPhone,
		RecipientCity:   params.RecipientCity,
		RecipientAddr:   ord.Address,
		PickupPointCode: params.PickupPointCode,
		CODAmount:       params.CODAmount,
		Weight:          params.Weight,
	})
	if err != nil {
		return nil, fmt.Errorf("courier %s: %w", courierID, err)
	}

	shipment := &model.Shipment{
		WaybillNumber:   receipt.WaybillNumber,
		CourierID:       courierID,
		OrderID:         ord.ID,
		SenderName:      params.SenderName,
		SenderPhone:     params.SenderPhone,
		RecipientName:   ord.CustomerName,
		RecipientPhone:  ord.CustomerPhone,
		RecipientCity:   params.RecipientCity,
		RecipientAddr:   ord.Address,
		PickupPointCode: params.PickupPointCode,
		CODAmount:       params.CODAmount,
		Weight:          params.Weight,
		Status:          model.ShipmentStatusRequested,
	}
	if err := c.store.CreateShipment(ctx, shipment); err != nil {
		return nil, err
	}

	if err := c.store.UpdateOrderCourier(ctx, ord.ID, courierID, receipt.WaybillNumber, receipt.TrackingURL); err != nil {
		c.log.Error("shipment recorded but order courier fields were not updated; reconcile manually",
			zap.Uint("order_id", ord.ID),
			zap.String("waybill", receipt.WaybillNumber),
			zap.Error(err))
	}

	c.log.Info("shipment created",
		zap.Uint("order_id", ord.ID),
		zap.String("courier", courierID),
		zap.String("waybill", receipt.WaybillNumber))
	return shipment, nil
}

// IssueInvoice issues a new invoice for the order. Deliberately not
// idempotent: every call consumes the next invoice number.
func (c *Coordinator) IssueInvoice(ctx context.Context, orderID uint, req invoice.Request) (*model.Invoice, error) {
	ord, err := c.store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return c.issuer.Issue(ctx, ord, req)
}

// Shipments lists the shipments recorded for an order.
func (c *Coordinator) Shipments(ctx context.Context, orderID uint) ([]model.Shipment, error) {
	return c.store.Shipments(ctx, orderID)
}

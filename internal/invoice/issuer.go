// Package invoice issues sequential invoices for orders. Numbering is
// gapless: the counter advance and the invoice insert commit or roll back
// together, and every invocation issues a fresh number even for an order
// that already has one (corrective invoices are a normal business case).
package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice-service/internal/model"
	"backoffice-service/pkg/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrInvalidTaxRate rejects a caller-supplied tax rate outside [0, 1].
// The gross-to-net division is undefined at rate -1 and a negative or
// above-100% VAT rate is always caller error.
var ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 1")

// Store persists invoices. Issue must assign the next counter number,
// insert the record, and advance the counter as a single unit.
type Store interface {
	Issue(ctx context.Context, inv *model.Invoice) error
	ListByOrder(ctx context.Context, orderID uint) ([]model.Invoice, error)
	List(ctx context.Context) ([]model.Invoice, error)
}

// Request carries the caller-controlled parts of an invoice. Zero values
// fall back to the order's own fields.
type Request struct {
	Description  string     `json:"description"`
	TaxRate      *float64   `json:"tax_rate,omitempty"`
	TaxEventDate *time.Time `json:"tax_event_date,omitempty"`
}

// Issuer builds and persists invoices.
type Issuer struct {
	store Store
	cfg   *config.InvoiceConfig
	log   *zap.Logger
}

// NewIssuer creates an issuer with the configured seller snapshot.
func NewIssuer(store Store, cfg *config.InvoiceConfig, log *zap.Logger) *Issuer {
	return &Issuer{store: store, cfg: cfg, log: log}
}

// Issue creates an invoice for the order. The order's total is treated as
// gross; subtotal and tax are derived from the configured (or overridden)
// tax rate with decimal arithmetic and rounded to two places.
func (i *Issuer) Issue(ctx context.Context, order *model.Order, req Request) (*model.Invoice, error) {
	rate := i.cfg.TaxRate
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}
	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("%w, got %v", ErrInvalidTaxRate, rate)
	}

	gross := decimal.NewFromFloat(order.TotalPrice)
	rateDec := decimal.NewFromFloat(rate)
	subtotal := gross.Div(rateDec.Add(decimal.NewFromInt(1))).Round(2)
	tax := gross.Sub(subtotal).Round(2)

	unitPrice := decimal.Zero
	if order.Quantity > 0 {
		unitPrice = gross.Div(decimal.NewFromInt(int64(order.Quantity))).Round(2)
	}

	description := req.Description
	if description == "" {
		description = order.ProductName
	}

	now := time.Now()
	taxEvent := now
	if req.TaxEventDate != nil {
		taxEvent = *req.TaxEventDate
	}

	inv := &model.Invoice{
		OrderID:       order.ID,
		SellerName:    i.cfg.SellerName,
		SellerTaxID:   i.cfg.SellerTaxID,
		SellerAddress: i.cfg.SellerAddress,
		BuyerName:     order.CustomerName,
		BuyerAddress:  order.Address,
		Description:   description,
		Quantity:      order.Quantity,
		UnitPrice:     unitPrice.InexactFloat64(),
		Subtotal:      subtotal.InexactFloat64(),
		TaxRate:       rate,
		TaxAmount:     tax.InexactFloat64(),
		Total:         gross.InexactFloat64(),
		IssueDate:     now,
		TaxEventDate:  taxEvent,
	}

	if err := i.store.Issue(ctx, inv); err != nil {
		return nil, err
	}

	i.log.Info("invoice issued",
		zap.Int64("number", inv.Number),
		zap.Uint("order_id", order.ID),
		zap.Float64("total", inv.Total))
	return inv, nil
}

// ListByOrder returns all invoices issued for one order.
func (i *Issuer) ListByOrder(ctx context.Context, orderID uint) ([]model.Invoice, error) {
	return i.store.ListByOrder(ctx, orderID)
}

// List returns all issued invoices.
func (i *Issuer) List(ctx context.Context) ([]model.Invoice, error) {
	return i.store.List(ctx)
}

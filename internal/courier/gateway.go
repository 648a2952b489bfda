// Package courier defines the uniform boundary to carrier APIs. Each
// carrier adapter is an opaque collaborator registered under a courier id;
// the request and response shapes here are the only contract the rest of
// the service knows about.
package courier

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ShipmentRequest carries everything a carrier needs to create a waybill.
type ShipmentRequest struct {
	OrderID         uint    `json:"order_id"`
	SenderName      string  `json:"sender_name"`
	SenderPhone     string  `json:"sender_phone"`
	RecipientName   string  `json:"recipient_name"`
	RecipientPhone  string  `json:"recipient_phone"`
	RecipientCity   string  `json:"recipient_city"`
	RecipientAddr   string  `json:"recipient_address"`
	PickupPointCode string  `json:"pickup_point_code,omitempty"`
	CODAmount       float64 `json:"cod_amount"`
	Weight          float64 `json:"weight"`
}

// ShipmentReceipt is the carrier's answer to a successful creation.
type ShipmentReceipt struct {
	WaybillNumber string `json:"waybill_number"`
	TrackingURL   string `json:"tracking_url,omitempty"`
}

// PriceParams parametrize a delivery price quote.
type PriceParams struct {
	RecipientCity   string  `json:"recipient_city"`
	PickupPointCode string  `json:"pickup_point_code,omitempty"`
	CODAmount       float64 `json:"cod_amount"`
	Weight          float64 `json:"weight"`
}

// Gateway is one carrier adapter.
type Gateway interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (*ShipmentReceipt, error)
	Label(ctx context.Context, waybillNumber string) ([]byte, error)
	CalculatePrice(ctx context.Context, params PriceParams) (float64, error)
}

// Registry holds the configured carrier adapters keyed by courier id.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]Gateway)}
}

// Register adds or replaces the adapter for a courier id.
func (r *Registry) Register(courierID string, gw Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[courierID] = gw
}

// Gateway returns the adapter for a courier id.
func (r *Registry) Gateway(courierID string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.gateways[courierID]
	if !ok {
		return nil, fmt.Errorf("no courier gateway registered for %q", courierID)
	}
	return gw, nil
}

// CourierIDs lists the registered courier ids, sorted.
func (r *Registry) CourierIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.gateways))
	for id := range r.gateways {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

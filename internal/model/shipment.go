package model

import "time"

// Shipment statuses as reported by courier gateways
const (
	ShipmentStatusRequested = "requested"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusCancelled = "cancelled"
)

// Shipment records one courier waybill created for an order. The sender and
// recipient fields are snapshots taken at creation time, not live references.
type Shipment struct {
	ID              uint      `json:"id" gorm:"primarykey"`
	WaybillNumber   string    `json:"waybill_number" gorm:"type:varchar(100);uniqueIndex;not null"`
	CourierID       string    `json:"courier_id" gorm:"type:varchar(100);not null"`
	OrderID         uint      `json:"order_id" gorm:"index;not null"`
	SenderName      string    `json:"sender_name" gorm:"type:varchar(255)"`
	SenderPhone     string    `json:"sender_phone" gorm:"type:varchar(50)"`
	RecipientName   string    `json:"recipient_name" gorm:"type:varchar(255)"`
	RecipientPhone  string    `json:"recipient_phone" gorm:"type:varchar(50)"`
	RecipientCity   string    `json:"recipient_city" gorm:"type:varchar(255)"`
	RecipientAddr   string    `json:"recipient_address" gorm:"type:text"`
	PickupPointCode string    `json:"pickup_point_code,omitempty" gorm:"type:varchar(100)"`
	CODAmount       float64   `json:"cod_amount"`
	Weight          float64   `json:"weight"`
	Status          string    `json:"status" gorm:"type:varchar(50);default:'requested'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

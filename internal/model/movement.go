package model

import "time"

// Stock movement types
const (
	MovementTypeOut       = "out"
	MovementTypeReturn    = "return"
	MovementTypeAdjustIn  = "adjust_in"
	MovementTypeAdjustOut = "adjust_out"
	MovementTypeSync      = "sync"
)

// MovementSign returns the stock delta direction for a movement type:
// +1 for inbound types, -1 for outbound types.
func MovementSign(movementType string) int {
	switch movementType {
	case MovementTypeOut, MovementTypeAdjustOut:
		return -1
	default:
		return 1
	}
}

// StockMovement records one stock-quantity change and its cause.
// Movements are append-only: they are never updated or deleted.
type StockMovement struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	ProductID   uint      `json:"product_id" gorm:"index;not null"`
	Type        string    `json:"type" gorm:"type:varchar(20);not null"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	StockBefore int       `json:"stock_before" gorm:"not null"`
	StockAfter  int       `json:"stock_after" gorm:"not null"`
	UnitPrice   float64   `json:"unit_price"`
	TotalPrice  float64   `json:"total_price"`
	OrderID     *uint     `json:"order_id,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
}

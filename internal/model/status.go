package model

import "time"

// Baseline order statuses. The set is open: admins can add statuses at
// runtime, these are only the seeded lifecycle.
const (
	StatusNew            = "New"
	StatusProcessing     = "Processing"
	StatusConfirmed      = "Confirmed"
	StatusShipped        = "Shipped"
	StatusDelivered      = "Delivered"
	StatusCompleted      = "Completed"
	StatusFailedContact  = "FailedContact"
	StatusFailedDelivery = "FailedDelivery"
	StatusReturned       = "Returned"
	StatusCancelled      = "Cancelled"
)

// OrderStatus is one entry of the admin-configurable status catalog.
// DecrementsStock marks the "goods left the warehouse" trigger point and
// RestocksStock the "goods came back" one. LeasingProvider tags financing
// variants of Confirmed.
type OrderStatus struct {
	ID              uint      `json:"id" gorm:"primarykey"`
	Name            string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Icon            string    `json:"icon" gorm:"type:varchar(100)"`
	Color           string    `json:"color" gorm:"type:varchar(50)"`
	IsTerminal      bool      `json:"is_terminal" gorm:"default:false"`
	DecrementsStock bool      `json:"decrements_stock" gorm:"default:false"`
	RestocksStock   bool      `json:"restocks_stock" gorm:"default:false"`
	LeasingProvider string    `json:"leasing_provider,omitempty" gorm:"type:varchar(100)"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SeedStatuses returns the baseline status catalog used to populate an
// empty order_statuses table.
func SeedStatuses() []OrderStatus {
	return []OrderStatus{
		{Name: StatusNew, Icon: "sparkles", Color: "#9e9e9e"},
		{Name: StatusProcessing, Icon: "hourglass", Color: "#2196f3"},
		{Name: StatusConfirmed, Icon: "check", Color: "#00bcd4"},
		{Name: StatusShipped, Icon: "truck", Color: "#ff9800", DecrementsStock: true},
		{Name: StatusDelivered, Icon: "package", Color: "#8bc34a"},
		{Name: StatusCompleted, Icon: "flag", Color: "#4caf50", IsTerminal: true},
		{Name: StatusFailedContact, Icon: "phone-off", Color: "#f44336"},
		{Name: StatusFailedDelivery, Icon: "undo", Color: "#f44336"},
		{Name: StatusReturned, Icon: "rotate-ccw", Color: "#795548", IsTerminal: true, RestocksStock: true},
		{Name: StatusCancelled, Icon: "x", Color: "#9e9e9e", IsTerminal: true},
	}
}

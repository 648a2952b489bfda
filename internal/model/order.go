package model

import "time"

// Order represents one sales order. Line items are packed into the flat
// ProductName and CatalogNumber fields (comma-joined, positionally aligned);
// the lineitem package decodes and encodes them.
type Order struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	Code          string    `json:"code" gorm:"type:varchar(50);index"`
	CustomerName  string    `json:"customer_name" gorm:"type:varchar(255)"`
	CustomerPhone string    `json:"customer_phone" gorm:"type:varchar(50)"`
	CustomerEmail string    `json:"customer_email" gorm:"type:varchar(255)"`
	ProductName   string    `json:"product_name" gorm:"type:text"`
	CatalogNumber string    `json:"catalog_number" gorm:"type:text"`
	Quantity      int       `json:"quantity" gorm:"default:0"`
	TotalPrice    float64   `json:"total_price" gorm:"default:0"`
	Address       string    `json:"address" gorm:"type:text"`
	Comment       string    `json:"comment" gorm:"type:text"`
	Status        string    `json:"status" gorm:"type:varchar(100);index;not null"`
	SourceChannel string    `json:"source_channel" gorm:"type:varchar(100);index"`
	CourierID     string    `json:"courier_id,omitempty" gorm:"type:varchar(100)"`
	WaybillNumber string    `json:"waybill_number,omitempty" gorm:"type:varchar(100)"`
	TrackingURL   string    `json:"tracking_url,omitempty" gorm:"type:text"`
	StoreID       *uint     `json:"store_id,omitempty" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

package model

import "time"

// Invoice is immutable once created. Number comes from the InvoiceCounter
// at issue time; corrective invoices for the same order get fresh numbers.
type Invoice struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	Number        int64     `json:"number" gorm:"uniqueIndex;not null"`
	OrderID       uint      `json:"order_id" gorm:"index;not null"`
	SellerName    string    `json:"seller_name" gorm:"type:varchar(255)"`
	SellerTaxID   string    `json:"seller_tax_id" gorm:"type:varchar(100)"`
	SellerAddress string    `json:"seller_address" gorm:"type:text"`
	BuyerName     string    `json:"buyer_name" gorm:"type:varchar(255)"`
	BuyerAddress  string    `json:"buyer_address" gorm:"type:text"`
	Description   string    `json:"description" gorm:"type:text"`
	Quantity      int       `json:"quantity" gorm:"not null"`
	UnitPrice     float64   `json:"unit_price" gorm:"not null"`
	Subtotal      float64   `json:"subtotal" gorm:"not null"`
	TaxRate       float64   `json:"tax_rate" gorm:"not null"`
	TaxAmount     float64   `json:"tax_amount" gorm:"not null"`
	Total         float64   `json:"total" gorm:"not null"`
	IssueDate     time.Time `json:"issue_date"`
	TaxEventDate  time.Time `json:"tax_event_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// InvoiceCounter holds the next invoice number. A single row is locked and
// advanced in the same transaction that inserts the invoice, so numbers are
// gapless and strictly increasing.
type InvoiceCounter struct {
	ID         uint  `json:"id" gorm:"primarykey"`
	NextNumber int64 `json:"next_number" gorm:"not null;default:1"`
}

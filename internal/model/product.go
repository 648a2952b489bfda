package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the product master data
type Product struct {
	ID                 uint           `json:"id" gorm:"primarykey"`
	Name               string         `json:"name" gorm:"type:varchar(255);not null"`
	SKU                string         `json:"sku" gorm:"type:varchar(100);unique;not null"`
	PurchasePrice      float64        `json:"purchase_price" gorm:"default:0"`
	SalePrice          float64        `json:"sale_price" gorm:"not null"`
	CurrentStock       int            `json:"current_stock" gorm:"default:0"`
	MinStock           int            `json:"min_stock" gorm:"default:0"`
	IsActive           bool           `json:"is_active" gorm:"default:true"`
	IsBundle           bool           `json:"is_bundle" gorm:"default:false;index"`
	ExternalBundleType string         `json:"external_bundle_type,omitempty" gorm:"type:varchar(100)"`
	ExternalID         string         `json:"external_id,omitempty" gorm:"type:varchar(100);index"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Components []BundleComponent `json:"components,omitempty" gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

// BundleComponent links a bundle product to one of its component products.
// One bundle unit consumes RequiredQuantity units of the component.
type BundleComponent struct {
	ID               uint      `json:"id" gorm:"primarykey"`
	ParentID         uint      `json:"parent_id" gorm:"uniqueIndex:idx_parent_component;not null"`
	ComponentID      uint      `json:"component_id" gorm:"uniqueIndex:idx_parent_component;not null"`
	RequiredQuantity int       `json:"required_quantity" gorm:"not null;default:1"`
	CreatedAt        time.Time `json:"created_at"`

	Component *Product `json:"component,omitempty" gorm:"foreignKey:ComponentID"`
}

package order

import (
	"context"

	"backoffice-service/internal/model"

	"gorm.io/gorm"
)

// GormStore implements Store on the service's PostgreSQL database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle in a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Order(ctx context.Context, id uint) (*model.Order, error) {
	var ord model.Order
	if err := s.db.WithContext(ctx).First(&ord, id).Error; err != nil {
		return nil, err
	}
	return &ord, nil
}

func (s *GormStore) UpdateOrderStatus(ctx context.Context, id uint, status string) error {
	return s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (s *GormStore) UpdateOrderCourier(ctx context.Context, id uint, courierID, waybillNumber, trackingURL string) error {
	return s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"courier_id":     courierID,
			"waybill_number": waybillNumber,
			"tracking_url":   trackingURL,
		}).Error
}

func (s *GormStore) CreateShipment(ctx context.Context, shipment *model.Shipment) error {
	return s.db.WithContext(ctx).Create(shipment).Error
}

func (s *GormStore) Shipments(ctx context.Context, orderID uint) ([]model.Shipment, error) {
	var shipments []model.Shipment
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&shipments).Error
	return shipments, err
}

func (s *GormStore) ProductBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

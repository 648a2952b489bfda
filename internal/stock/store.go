package stock

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

func (s *GormStore) Product(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *GormStore) Components(ctx context.Context, parentID uint) ([]model.BundleComponent, error) {
	var components []model.BundleComponent
	err := s.db.WithContext(ctx).
		Preload("Component").
		Where("parent_id = ?", parentID).
		Order("id").
		Find(&components).Error
	if err != nil {
		return nil, err
	}
	return components, nil
}

// ApplyMovements commits all movements in one transaction. Each stock update
// is conditional on current_stock still matching the movement's recorded
// snapshot, which is the optimistic-concurrency guard against a concurrent
// sale of the same components; a mismatch rolls everything back.
func (s *GormStore) ApplyMovements(ctx context.Context, movements []model.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check order idempotency inside the transaction: the resolver's
		// pre-check can race with another request for the same order. The
		// key is (order, type) so a return can follow the sale it reverses.
		type orderType struct {
			orderID      uint
			movementType string
		}
		seen := make(map[orderType]bool)
		for _, m := range movements {
			if m.OrderID == nil {
				continue
			}
			key := orderType{*m.OrderID, m.Type}
			if seen[key] {
				continue
			}
			seen[key] = true

			var count int64
			if err := tx.Model(&model.StockMovement{}).
				Where("order_id = ? AND type = ?", *m.OrderID, m.Type).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyApplied
			}
		}

		for _, m := range movements {
			res := tx.Model(&model.Product{}).
				Where("id = ? AND current_stock = ?", m.ProductID, m.StockBefore).
				Update("current_stock", m.StockAfter)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrConcurrentModification
			}
		}

		return tx.Create(&movements).Error
	})
}

func (s *GormStore) OrderMovementsExist(ctx context.Context, orderID uint, movementType string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.StockMovement{}).
		Where("order_id = ? AND type = ?", orderID, movementType).
		Count(&count).Error
	return count > 0, err
}

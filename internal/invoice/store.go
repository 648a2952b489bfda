package invoice

import (
	"context"

	"backoffice-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on the service's PostgreSQL database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle in a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Issue locks the counter row, stamps its number onto the invoice, inserts
// the record, and advances the counter, all in one transaction. A failed
// insert leaves the counter where it was.
func (s *GormStore) Issue(ctx context.Context, inv *model.Invoice) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter model.InvoiceCounter
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&counter).Error; err != nil {
			return err
		}

		inv.Number = counter.NextNumber
		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		counter.NextNumber++
		return tx.Save(&counter).Error
	})
}

func (s *GormStore) ListByOrder(ctx context.Context, orderID uint) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("number").
		Find(&invoices).Error
	return invoices, err
}

func (s *GormStore) List(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := s.db.WithContext(ctx).Order("number").Find(&invoices).Error
	return invoices, err
}

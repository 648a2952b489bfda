// Package catalog reconciles product tuples from an external catalog into
// the product and bundle-component tables. The external feed is the source
// of truth for names, prices, stock levels, and bundle composition; the
// reconciler upserts by external id or SKU and replaces component lists
// wholesale.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"backoffice-service/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ComponentEntry is one bundle component in the external feed, referenced
// by the component product's SKU.
type ComponentEntry struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// Entry is one product tuple from the external catalog.
type Entry struct {
	ExternalID string           `json:"external_id"`
	Name       string           `json:"name"`
	SKU        string           `json:"sku"`
	Price      float64          `json:"price"`
	Stock      int              `json:"stock"`
	BundleType string           `json:"bundle_type,omitempty"`
	Components []ComponentEntry `json:"components,omitempty"`
}

// Result summarizes one reconciliation run.
type Result struct {
	RunID              string   `json:"run_id"`
	Created            int      `json:"created"`
	Updated            int      `json:"updated"`
	ComponentsReplaced int      `json:"components_replaced"`
	MovementsRecorded  int      `json:"movements_recorded"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Policy holds the bundle-structure flags for reconciliation.
type Policy struct {
	AllowNestedBundles bool
}

// Reconciler applies external catalog entries to the local tables.
type Reconciler struct {
	db     *gorm.DB
	policy Policy
	log    *zap.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(db *gorm.DB, policy Policy, log *zap.Logger) *Reconciler {
	return &Reconciler{db: db, policy: policy, log: log}
}

// Reconcile upserts every entry. Each entry commits in its own transaction
// so one bad tuple does not poison the whole run; failures become warnings
// in the result.
func (r *Reconciler) Reconcile(ctx context.Context, entries []Entry) (*Result, error) {
	result := &Result{RunID: uuid.New().String()}

	for _, entry := range entries {
		if entry.SKU == "" {
			result.Warnings = append(result.Warnings, "entry without SKU skipped")
			continue
		}
		if err := r.reconcileOne(ctx, entry, result); err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("sku %s: %v", entry.SKU, err))
		}
	}

	r.log.Info("catalog sync finished",
		zap.String("run_id", result.RunID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("movements", result.MovementsRecorded),
		zap.Int("warnings", len(result.Warnings)))
	return result, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, entry Entry, result *Result) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		err := tx.Where("external_id = ? OR sku = ?", entry.ExternalID, entry.SKU).
			First(&product).Error

		isBundle := entry.BundleType != "" || len(entry.Components) > 0

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			product = model.Product{
				Name:               entry.Name,
				SKU:                entry.SKU,
				SalePrice:          entry.Price,
				CurrentStock:       entry.Stock,
				IsActive:           true,
				IsBundle:           isBundle,
				ExternalBundleType: entry.BundleType,
				ExternalID:         entry.ExternalID,
			}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			result.Created++
		case err != nil:
			return err
		default:
			if !product.IsBundle && product.CurrentStock != entry.Stock {
				delta := entry.Stock - product.CurrentStock
				movement := model.StockMovement{
					ProductID:   product.ID,
					Type:        model.MovementTypeSync,
					Quantity:    delta,
					StockBefore: product.CurrentStock,
					StockAfter:  entry.Stock,
					UnitPrice:   entry.Price,
					TotalPrice:  entry.Price * float64(delta),
				}
				if err := tx.Create(&movement).Error; err != nil {
					return err
				}
				result.MovementsRecorded++
			}

			product.Name = entry.Name
			product.SalePrice = entry.Price
			product.CurrentStock = entry.Stock
			product.IsBundle = isBundle
			product.ExternalBundleType = entry.BundleType
			product.ExternalID = entry.ExternalID
			if err := tx.Save(&product).Error; err != nil {
				return err
			}
			result.Updated++
		}

		if isBundle {
			if err := r.replaceComponents(tx, &product, entry.Components, result); err != nil {
				return err
			}
		}
		return nil
	})
}

// replaceComponents swaps a bundle's component list wholesale for the feed's
// version. Components whose SKU does not resolve are reported, not guessed.
func (r *Reconciler) replaceComponents(tx *gorm.DB, parent *model.Product, entries []ComponentEntry, result *Result) error {
	if err := tx.Where("parent_id = ?", parent.ID).
		Delete(&model.BundleComponent{}).Error; err != nil {
		return err
	}

	for _, comp := range entries {
		var component model.Product
		if err := tx.Where("sku = ?", comp.SKU).First(&component).Error; err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("bundle %s: component sku %s not found", parent.SKU, comp.SKU))
			continue
		}
		if component.IsBundle && !r.policy.AllowNestedBundles {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("bundle %s: nested bundle %s rejected by policy", parent.SKU, comp.SKU))
			continue
		}

		quantity := comp.Quantity
		if quantity < 1 {
			quantity = 1
		}
		if err := tx.Create(&model.BundleComponent{
			ParentID:         parent.ID,
			ComponentID:      component.ID,
			RequiredQuantity: quantity,
		}).Error; err != nil {
			return err
		}
	}

	result.ComponentsReplaced++
	return nil
}

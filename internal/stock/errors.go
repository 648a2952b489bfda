package stock

import (
	"errors"
	"fmt"
)

var (
	// ErrConcurrentModification means a product's stock changed between the
	// snapshot read and the conditional write. Nothing was applied.
	ErrConcurrentModification = errors.New("stock changed since it was read")

	// ErrAlreadyApplied means the order's movements were committed earlier.
	// Re-entering a stock-decrementing status must not decrement twice.
	ErrAlreadyApplied = errors.New("stock movements already applied for this order")

	// ErrNegativeQuantity is a programming error, not a business condition.
	ErrNegativeQuantity = errors.New("reservation quantity must not be negative")
)

// InsufficientStockError reports a reservation that would drive availability
// negative. It is a business-rule signal: the movements accompanying it are
// still valid, and the caller decides between blocking the sale and allowing
// a backorder.
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
	// LimitingComponent names the binding component when the product is a
	// bundle; zero for plain products.
	LimitingComponent uint
}

func (e *InsufficientStockError) Error() string {
	if e.LimitingComponent != 0 {
		return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d (limited by component %d)",
			e.ProductID, e.Requested, e.Available, e.LimitingComponent)
	}
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// UnconfiguredBundleError reports a sale attempt against a bundle with no
// components. Such a bundle is treated as out of stock, never as unlimited.
type UnconfiguredBundleError struct {
	ProductID uint
}

func (e *UnconfiguredBundleError) Error() string {
	return fmt.Sprintf("bundle product %d has no configured components", e.ProductID)
}

// Package settings serves the admin-configurable order-status catalog.
// The catalog is shared mutable configuration, so it is injected as an
// explicit dependency and cached with an explicit TTL and explicit
// invalidation rather than read as ambient global state.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"backoffice-service/internal/model"

	"gorm.io/gorm"
)

// ErrUnknownStatus marks a lookup for a status name not in the catalog.
var ErrUnknownStatus = errors.New("unknown order status")

// StatusCatalog caches the order_statuses table.
type StatusCatalog struct {
	db  *gorm.DB
	ttl time.Duration

	mu       sync.RWMutex
	byName   map[string]model.OrderStatus
	ordered  []model.OrderStatus
	loadedAt time.Time
}

// NewStatusCatalog creates a catalog with the given cache TTL.
func NewStatusCatalog(db *gorm.DB, ttl time.Duration) *StatusCatalog {
	return &StatusCatalog{db: db, ttl: ttl}
}

func (c *StatusCatalog) refresh(ctx context.Context) error {
	var statuses []model.OrderStatus
	if err := c.db.WithContext(ctx).Order("id").Find(&statuses).Error; err != nil {
		return err
	}

	byName := make(map[string]model.OrderStatus, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}

	c.mu.Lock()
	c.byName = byName
	c.ordered = statuses
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func (c *StatusCatalog) ensureFresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := c.byName != nil && time.Since(c.loadedAt) < c.ttl
	c.mu.RUnlock()
	if fresh {
		return nil
	}
	return c.refresh(ctx)
}

// All returns the configured statuses in catalog order.
func (c *StatusCatalog) All(ctx context.Context) ([]model.OrderStatus, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.OrderStatus, len(c.ordered))
	copy(out, c.ordered)
	return out, nil
}

// Lookup resolves a status by name. Membership is validated here, at the
// boundary, because the status set is open and admin-editable.
func (c *StatusCatalog) Lookup(ctx context.Context, name string) (*model.OrderStatus, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	status, ok := c.byName[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStatus, name)
	}
	return &status, nil
}

// Invalidate drops the cache. Writers to the catalog call this so the next
// read sees the change immediately instead of waiting out the TTL.
func (c *StatusCatalog) Invalidate() {
	c.mu.Lock()
	c.byName = nil
	c.ordered = nil
	c.mu.Unlock()
}

// Save upserts a status and invalidates the cache.
func (c *StatusCatalog) Save(ctx context.Context, status *model.OrderStatus) error {
	if err := c.db.WithContext(ctx).Save(status).Error; err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

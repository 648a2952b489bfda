// Package handler exposes the HTTP surface. Handlers follow the service
// convention: free functions over echo.Context, request-scoped logging, and
// package-level collaborators wired once at startup.
package handler

import (
	"backoffice-service/internal/catalog"
	"backoffice-service/internal/courier"
	"backoffice-service/internal/invoice"
	"backoffice-service/internal/order"
	"backoffice-service/internal/settings"
	"backoffice-service/internal/stock"
)

var (
	coordinator *order.Coordinator
	resolver    *stock.Resolver
	issuer      *invoice.Issuer
	statuses    *settings.StatusCatalog
	reconciler  *catalog.Reconciler
	couriers    *courier.Registry
)

// Deps bundles the collaborators the handlers need.
type Deps struct {
	Coordinator *order.Coordinator
	Resolver    *stock.Resolver
	Issuer      *invoice.Issuer
	Statuses    *settings.StatusCatalog
	Reconciler  *catalog.Reconciler
	Couriers    *courier.Registry
}

// Init wires the handler package. Called once from main before routing.
func Init(deps Deps) {
	coordinator = deps.Coordinator
	resolver = deps.Resolver
	issuer = deps.Issuer
	statuses = deps.Statuses
	reconciler = deps.Reconciler
	couriers = deps.Couriers
}

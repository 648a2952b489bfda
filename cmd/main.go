package main

import (
	"net/http"

	"backoffice-service/internal/catalog"
	"backoffice-service/internal/courier"
	"backoffice-service/internal/handler"
	"backoffice-service/internal/invoice"
	mid "backoffice-service/internal/middleware"
	"backoffice-service/internal/order"
	"backoffice-service/internal/settings"
	"backoffice-service/internal/stock"
	"backoffice-service/pkg/config"
	"backoffice-service/pkg/database"
	"backoffice-service/pkg/jwtutil"
	"backoffice-service/pkg/logger"
	"backoffice-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration (reads .env if present)
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting backoffice-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")
	db := database.GetDB()

	// Wire the domain services
	resolver := stock.NewResolver(stock.NewGormStore(db), log)
	issuer := invoice.NewIssuer(invoice.NewGormStore(db), &appConfig.Invoice, log)
	statusCatalog := settings.NewStatusCatalog(db, appConfig.Settings.StatusCacheTTL)
	couriers := courier.NewRegistry()
	coordinator := order.NewCoordinator(
		order.NewGormStore(db),
		resolver,
		couriers,
		issuer,
		statusCatalog,
		order.Policy{AllowMultipleActiveShipments: appConfig.Stock.AllowMultipleActiveShipments},
		log,
	)
	reconciler := catalog.NewReconciler(db,
		catalog.Policy{AllowNestedBundles: appConfig.Stock.AllowNestedBundles}, log)

	handler.Init(handler.Deps{
		Coordinator: coordinator,
		Resolver:    resolver,
		Issuer:      issuer,
		Statuses:    statusCatalog,
		Reconciler:  reconciler,
		Couriers:    couriers,
	})

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Product API routes
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", handler.ListProducts)
	productAPI.GET("/:id", handler.GetProduct)
	productAPI.POST("", handler.CreateProduct)
	productAPI.PUT("/:id", handler.UpdateProduct)
	productAPI.DELETE("/:id", handler.DeleteProduct)
	productAPI.GET("/:id/availability", handler.GetAvailability)
	productAPI.PUT("/:id/components", handler.SetComponents)
	productAPI.POST("/:id/adjust-stock", handler.AdjustStock)
	productAPI.GET("/:id/movements", handler.ListMovements)

	// Order API routes
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.GET("", handler.ListOrders)
	orderAPI.GET("/:id", handler.GetOrder)
	orderAPI.POST("", handler.CreateOrder)
	orderAPI.PUT("/:id", handler.UpdateOrder)
	orderAPI.DELETE("/:id", handler.DeleteOrder)
	orderAPI.GET("/:id/items", handler.GetOrderItems)
	orderAPI.POST("/:id/status", handler.ChangeOrderStatus)
	orderAPI.POST("/:id/shipment", handler.CreateShipment)
	orderAPI.GET("/:id/shipments", handler.ListOrderShipments)
	orderAPI.POST("/:id/invoice", handler.IssueInvoice)
	orderAPI.GET("/:id/invoices", handler.ListOrderInvoices)

	// Courier and invoice API routes
	e.GET("/api/shipments/:waybill/label", handler.GetLabel, mid.AuthMiddleware)
	e.POST("/api/couriers/:courier/price", handler.CalculatePrice, mid.AuthMiddleware)
	e.GET("/api/invoices", handler.ListInvoices, mid.AuthMiddleware)

	// Status catalog API routes
	statusAPI := e.Group("/api/statuses", mid.AuthMiddleware)
	statusAPI.GET("", handler.ListStatuses)
	statusAPI.POST("", handler.CreateStatus)
	statusAPI.PUT("/:name", handler.UpdateStatus)

	// Catalog sync
	e.POST("/api/sync/catalog", handler.SyncCatalog, mid.AuthMiddleware)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}

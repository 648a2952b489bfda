package handler

import (
	"errors"
	"net/http"
	"strconv"

	"backoffice-service/internal/model"
	"backoffice-service/internal/stock"
	"backoffice-service/pkg/database"
	"backoffice-service/pkg/logger"
	"backoffice-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name               string  `json:"name" validate:"required"`
	SKU                string  `json:"sku" validate:"required"`
	PurchasePrice      float64 `json:"purchase_price"`
	SalePrice          float64 `json:"sale_price" validate:"required,gt=0"`
	CurrentStock       int     `json:"current_stock"`
	MinStock           int     `json:"min_stock"`
	IsActive           bool    `json:"is_active"`
	IsBundle           bool    `json:"is_bundle"`
	ExternalBundleType string  `json:"external_bundle_type"`
}

// ComponentRequest is one entry of a bundle's component list
type ComponentRequest struct {
	ComponentID      uint `json:"component_id" validate:"required"`
	RequiredQuantity int  `json:"required_quantity" validate:"required,gte=1"`
}

// AdjustStockRequest carries a manual stock correction
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// ListProducts handles retrieving all products with optional filtering
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	db := database.GetDB()
	var products []model.Product

	query := db

	// Filter by active status if specified
	isActive := c.QueryParam("is_active")
	if isActive != "" {
		active, err := strconv.ParseBool(isActive)
		if err == nil {
			query = query.Where("is_active = ?", active)
		} else {
			log.Warn("Invalid is_active parameter", zap.String("value", isActive), zap.Error(err))
		}
	}

	// Filter by bundle flag if specified
	isBundle := c.QueryParam("is_bundle")
	if isBundle != "" {
		bundle, err := strconv.ParseBool(isBundle)
		if err == nil {
			query = query.Where("is_bundle = ?", bundle)
		} else {
			log.Warn("Invalid is_bundle parameter", zap.String("value", isBundle), zap.Error(err))
		}
	}

	result := query.Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID with its components
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var product model.Product
	result := database.GetDB().Preload("Components.Component").First(&product, id)
	if result.Error != nil {
		log.Error("Product not found",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a new product
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	// Check if product with SKU already exists
	var count int64
	database.GetDB().Model(&model.Product{}).Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Product with this SKU already exists",
		})
	}

	product := model.Product{
		Name:               req.Name,
		SKU:                req.SKU,
		PurchasePrice:      req.PurchasePrice,
		SalePrice:          req.SalePrice,
		CurrentStock:       req.CurrentStock,
		MinStock:           req.MinStock,
		IsActive:           req.IsActive,
		IsBundle:           req.IsBundle,
		ExternalBundleType: req.ExternalBundleType,
	}

	result := database.GetDB().Create(&product)
	if result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.String("sku", req.SKU),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create product",
		})
	}

	prometheus.ProductOperationsCounter.WithLabelValues("create").Inc()
	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("sku", product.SKU))
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("product_id", id), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	var product model.Product
	result := database.GetDB().First(&product, id)
	if result.Error != nil {
		log.Error("Product not found for update",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	// Check if SKU is changed and if new SKU already exists
	if req.SKU != product.SKU {
		var count int64
		database.GetDB().Model(&model.Product{}).Where("sku = ? AND id != ?", req.SKU, id).Count(&count)
		if count > 0 {
			log.Warn("Product with this SKU already exists", zap.String("sku", req.SKU))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Product with this SKU already exists",
			})
		}
	}

	// Direct stock edits go through the adjust-stock endpoint so the
	// movement ledger stays complete; this update ignores CurrentStock.
	product.Name = req.Name
	product.SKU = req.SKU
	product.PurchasePrice = req.PurchasePrice
	product.SalePrice = req.SalePrice
	product.MinStock = req.MinStock
	product.IsActive = req.IsActive
	product.IsBundle = req.IsBundle
	product.ExternalBundleType = req.ExternalBundleType

	result = database.GetDB().Save(&product)
	if result.Error != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update product",
		})
	}

	prometheus.ProductOperationsCounter.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct handles soft-deleting a product. Historical orders and
// movements keep referencing it.
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Product{}, id)
	if result.Error != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete product",
		})
	}

	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	prometheus.ProductOperationsCounter.WithLabelValues("delete").Inc()
	log.Info("Product deleted", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deleted successfully",
	})
}

// GetAvailability reports the effective availability of a product. For
// bundles this is derived from component stock, not the product's own field.
func GetAvailability(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	avail, err := resolver.Availability(c.Request().Context(), uint(id))
	if err != nil {
		log.Error("Failed to compute availability",
			zap.Uint64("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	return c.JSON(http.StatusOK, avail)
}

// SetComponents replaces a bundle's component list wholesale
func SetComponents(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var reqs []ComponentRequest
	if err := c.Bind(&reqs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	db := database.GetDB()
	var product model.Product
	if err := db.First(&product, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}
	if !product.IsBundle {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Product is not a bundle"})
	}

	components := make([]model.BundleComponent, 0, len(reqs))
	for _, r := range reqs {
		if r.RequiredQuantity < 1 {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "required_quantity must be at least 1"})
		}
		components = append(components, model.BundleComponent{
			ParentID:         product.ID,
			ComponentID:      r.ComponentID,
			RequiredQuantity: r.RequiredQuantity,
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", product.ID).Delete(&model.BundleComponent{}).Error; err != nil {
			return err
		}
		if len(components) == 0 {
			return nil
		}
		return tx.Create(&components).Error
	})
	if err != nil {
		log.Error("Failed to replace bundle components",
			zap.Uint("product_id", product.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to replace components"})
	}

	log.Info("Bundle components replaced",
		zap.Uint("product_id", product.ID),
		zap.Int("components", len(components)))
	return c.JSON(http.StatusOK, components)
}

// AdjustStock records a manual stock correction through the movement ledger
func AdjustStock(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid product id"})
	}

	var req AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	movement, err := resolver.ManualAdjust(c.Request().Context(), uint(id), req.Delta)
	if err != nil {
		if errors.Is(err, stock.ErrConcurrentModification) {
			prometheus.ConcurrentStockConflicts.Inc()
			return c.JSON(http.StatusConflict, echo.Map{"error": "Stock changed concurrently, retry"})
		}
		log.Error("Failed to adjust stock",
			zap.Uint64("product_id", id),
			zap.Int("delta", req.Delta),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to adjust stock"})
	}
	if movement == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "No adjustment needed"})
	}

	prometheus.StockMovementsCounter.WithLabelValues(movement.Type).Inc()
	log.Info("Stock adjusted",
		zap.Uint64("product_id", id),
		zap.Int("delta", req.Delta),
		zap.Int("stock_after", movement.StockAfter))
	return c.JSON(http.StatusCreated, movement)
}

// ListMovements returns the movement ledger for one product
func ListMovements(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var movements []model.StockMovement
	result := database.GetDB().
		Where("product_id = ?", id).
		Order("id desc").
		Find(&movements)
	if result.Error != nil {
		log.Error("Failed to list stock movements",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve movements"})
	}

	return c.JSON(http.StatusOK, movements)
}

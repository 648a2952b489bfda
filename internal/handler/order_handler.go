package handler

import (
	"errors"
	"net/http"
	"strconv"

	"backoffice-service/internal/lineitem"
	"backoffice-service/internal/middleware"
	"backoffice-service/internal/model"
	"backoffice-service/internal/settings"
	"backoffice-service/internal/stock"
	"backoffice-service/pkg/database"
	"backoffice-service/pkg/logger"
	"backoffice-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderRequest defines the structure for order creation/update requests.
// Line items may be sent structured; they are packed into the flat fields on
// write. Channel webhooks that already carry packed strings may send those
// instead.
type OrderRequest struct {
	Code          string          `json:"code"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	Items         []lineitem.Item `json:"items,omitempty"`
	ProductName   string          `json:"product_name,omitempty"`
	CatalogNumber string          `json:"catalog_number,omitempty"`
	Quantity      int             `json:"quantity,omitempty"`
	TotalPrice    float64         `json:"total_price,omitempty"`
	Address       string          `json:"address"`
	Comment       string          `json:"comment"`
	SourceChannel string          `json:"source_channel"`
}

// StatusChangeRequest names the target status of a transition
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

// orderWithItems decorates an order with its decoded line items
type orderWithItems struct {
	model.Order
	Items       []lineitem.Item `json:"items"`
	NeedsReview bool            `json:"needs_review,omitempty"`
}

// ListOrders handles retrieving orders with optional filtering
func ListOrders(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB()

	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if channel := c.QueryParam("source_channel"); channel != "" {
		query = query.Where("source_channel = ?", channel)
	}

	var orders []model.Order
	result := query.Order("id desc").Find(&orders)
	if result.Error != nil {
		log.Error("Failed to list orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, orders)
}

// GetOrder handles retrieving a single order with decoded line items
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var ord model.Order
	result := database.GetDB().First(&ord, id)
	if result.Error != nil {
		log.Error("Order not found", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	items, needsReview := lineitem.Decode(ord.ProductName, ord.CatalogNumber, ord.Quantity, ord.TotalPrice)
	if needsReview {
		// Decode problems are an operator concern, never an end-user error.
		log.Warn("Order line items need manual review", zap.Uint("order_id", ord.ID))
	}

	return c.JSON(http.StatusOK, orderWithItems{Order: ord, Items: items, NeedsReview: needsReview})
}

// GetOrderItems returns just the decoded line items of an order
func GetOrderItems(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var ord model.Order
	if err := database.GetDB().First(&ord, id).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	items, needsReview := lineitem.Decode(ord.ProductName, ord.CatalogNumber, ord.Quantity, ord.TotalPrice)
	if needsReview {
		log.Warn("Order line items need manual review", zap.Uint("order_id", ord.ID))
	}

	return c.JSON(http.StatusOK, echo.Map{"items": items, "needs_review": needsReview})
}

// CreateOrder handles creating an order from a channel webhook or manual entry
func CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	ord := model.Order{
		Code:          req.Code,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Address:       req.Address,
		Comment:       req.Comment,
		Status:        model.StatusNew,
		SourceChannel: req.SourceChannel,
	}
	if storeID, ok := middleware.GetStoreIDFromContext(c); ok {
		ord.StoreID = &storeID
	}

	if len(req.Items) > 0 {
		ord.ProductName, ord.CatalogNumber, ord.Quantity, ord.TotalPrice = lineitem.Encode(req.Items)
	} else {
		ord.ProductName = req.ProductName
		ord.CatalogNumber = req.CatalogNumber
		ord.Quantity = req.Quantity
		ord.TotalPrice = req.TotalPrice
	}

	result := database.GetDB().Create(&ord)
	if result.Error != nil {
		log.Error("Failed to create order", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create order"})
	}

	prometheus.OrderOperationsCounter.WithLabelValues("create").Inc()
	log.Info("Order created",
		zap.Uint("order_id", ord.ID),
		zap.String("channel", ord.SourceChannel),
		zap.Int("quantity", ord.Quantity))
	return c.JSON(http.StatusCreated, ord)
}

// UpdateOrder handles editing an order's customer and line-item data
func UpdateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var ord model.Order
	result := database.GetDB().First(&ord, id)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	ord.Code = req.Code
	ord.CustomerName = req.CustomerName
	ord.CustomerPhone = req.CustomerPhone
	ord.CustomerEmail = req.CustomerEmail
	ord.Address = req.Address
	ord.Comment = req.Comment
	ord.SourceChannel = req.SourceChannel

	if len(req.Items) > 0 {
		ord.ProductName, ord.CatalogNumber, ord.Quantity, ord.TotalPrice = lineitem.Encode(req.Items)
	} else if req.ProductName != "" {
		ord.ProductName = req.ProductName
		ord.CatalogNumber = req.CatalogNumber
		ord.Quantity = req.Quantity
		ord.TotalPrice = req.TotalPrice
	}

	if err := database.GetDB().Save(&ord).Error; err != nil {
		log.Error("Failed to update order", zap.String("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update order"})
	}

	prometheus.OrderOperationsCounter.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, ord)
}

// DeleteOrder handles the explicit admin delete action. Orders are not
// soft-deleted: this removes the record.
func DeleteOrder(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	result := database.GetDB().Delete(&model.Order{}, id)
	if result.Error != nil {
		log.Error("Failed to delete order", zap.String("order_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete order"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	prometheus.OrderOperationsCounter.WithLabelValues("delete").Inc()
	log.Info("Order deleted", zap.String("order_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "Order deleted successfully"})
}

// ChangeOrderStatus moves an order through its lifecycle. Business-rule
// findings come back as warnings alongside a successful transition.
func ChangeOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	var req StatusChangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	result, err := coordinator.ChangeStatus(c.Request().Context(), uint(id), req.Status)
	if err != nil {
		log.Error("Status transition failed",
			zap.Uint64("order_id", id),
			zap.String("status", req.Status),
			zap.Error(err))
		return c.JSON(transitionErrorStatus(err), echo.Map{"error": err.Error()})
	}

	prometheus.StatusTransitionsCounter.WithLabelValues(result.To).Inc()
	if result.StockApplied {
		prometheus.StockMovementsCounter.WithLabelValues(model.MovementTypeOut).Add(float64(result.Movements))
	}
	if result.StockRestocked {
		prometheus.StockMovementsCounter.WithLabelValues(model.MovementTypeReturn).Add(float64(result.Movements))
	}
	if result.Shortfalls > 0 {
		prometheus.InsufficientStockCounter.Add(float64(result.Shortfalls))
	}

	return c.JSON(http.StatusOK, result)
}

// transitionErrorStatus maps a failed transition to a response code.
// A status name outside the catalog is the caller's problem, a stock write
// conflict is retryable, a missing order is 404; everything else is a
// server-side failure.
func transitionErrorStatus(err error) int {
	switch {
	case errors.Is(err, settings.ErrUnknownStatus):
		return http.StatusUnprocessableEntity
	case errors.Is(err, stock.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

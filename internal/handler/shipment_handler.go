package handler

import (
	"net/http"
	"strconv"

	"backoffice-service/internal/courier"
	"backoffice-service/internal/model"
	"backoffice-service/internal/order"
	"backoffice-service/pkg/database"
	"backoffice-service/pkg/logger"
	"backoffice-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ShipmentRequest carries a shipment creation request for an order
type ShipmentRequest struct {
	CourierID       string  `json:"courier_id" validate:"required"`
	SenderName      string  `json:"sender_name"`
	SenderPhone     string  `json:"sender_phone"`
	RecipientCity   string  `json:"recipient_city"`
	PickupPointCode string  `json:"pickup_point_code"`
	CODAmount       float64 `json:"cod_amount"`
	Weight          float64 `json:"weight"`
}

// PriceRequest parametrizes a courier price quote
type PriceRequest struct {
	RecipientCity   string  `json:"recipient_city"`
	PickupPointCode string  `json:"pickup_point_code"`
	CODAmount       float64 `json:"cod_amount"`
	Weight          float64 `json:"weight"`
}

// CreateShipment requests a waybill from the courier and records it
func CreateShipment(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	var req ShipmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.CourierID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "courier_id is required"})
	}

	prometheus.CourierCallsCounter.WithLabelValues(req.CourierID, "create_shipment").Inc()

	shipment, err := coordinator.CreateShipment(c.Request().Context(), uint(id), req.CourierID, order.ShipmentParams{
		SenderName:      req.SenderName,
		SenderPhone:     req.SenderPhone,
		RecipientCity:   req.RecipientCity,
		PickupPointCode: req.PickupPointCode,
		CODAmount:       req.CODAmount,
		Weight:          req.Weight,
	})
	if err != nil {
		prometheus.CourierErrorsCounter.WithLabelValues(req.CourierID, "create_shipment").Inc()
		log.Error("Failed to create shipment",
			zap.Uint64("order_id", id),
			zap.String("courier", req.CourierID),
			zap.Error(err))
		// Surface the raw external error so the operator can act on it.
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, shipment)
}

// ListOrderShipments returns the shipments recorded for one order
func ListOrderShipments(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	shipments, err := coordinator.Shipments(c.Request().Context(), uint(id))
	if err != nil {
		log.Error("Failed to list shipments", zap.Uint64("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve shipments"})
	}

	return c.JSON(http.StatusOK, shipments)
}

// GetLabel streams the courier's label for a waybill
func GetLabel(c echo.Context) error {
	log := logger.FromContext(c)
	waybill := c.Param("waybill")

	var shipment model.Shipment
	if err := database.GetDB().Where("waybill_number = ?", waybill).First(&shipment).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Shipment not found"})
	}

	gw, err := couriers.Gateway(shipment.CourierID)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	prometheus.CourierCallsCounter.WithLabelValues(shipment.CourierID, "label").Inc()
	label, err := gw.Label(c.Request().Context(), waybill)
	if err != nil {
		prometheus.CourierErrorsCounter.WithLabelValues(shipment.CourierID, "label").Inc()
		log.Error("Failed to fetch label",
			zap.String("waybill", waybill),
			zap.String("courier", shipment.CourierID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}

	return c.Blob(http.StatusOK, "application/pdf", label)
}

// CalculatePrice asks a courier for a delivery price quote
func CalculatePrice(c echo.Context) error {
	log := logger.FromContext(c)
	courierID := c.Param("courier")

	var req PriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	gw, err := couriers.Gateway(courierID)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}

	prometheus.CourierCallsCounter.WithLabelValues(courierID, "calculate_price").Inc()
	price, err := gw.CalculatePrice(c.Request().Context(), courier.PriceParams{
		RecipientCity:   req.RecipientCity,
		PickupPointCode: req.PickupPointCode,
		CODAmount:       req.CODAmount,
		Weight:          req.Weight,
	})
	if err != nil {
		prometheus.CourierErrorsCounter.WithLabelValues(courierID, "calculate_price").Inc()
		log.Error("Failed to calculate price",
			zap.String("courier", courierID),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"courier_id": courierID, "price": price})
}

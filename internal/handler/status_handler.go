package handler

import (
	"net/http"

	"backoffice-service/internal/model"
	"backoffice-service/pkg/database"
	"backoffice-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StatusRequest defines the admin-editable status metadata
type StatusRequest struct {
	Name            string `json:"name" validate:"required"`
	Icon            string `json:"icon"`
	Color           string `json:"color"`
	IsTerminal      bool   `json:"is_terminal"`
	DecrementsStock bool   `json:"decrements_stock"`
	LeasingProvider string `json:"leasing_provider"`
}

// ListStatuses returns the configured status catalog
func ListStatuses(c echo.Context) error {
	log := logger.FromContext(c)

	all, err := statuses.All(c.Request().Context())
	if err != nil {
		log.Error("Failed to list statuses", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve statuses"})
	}

	return c.JSON(http.StatusOK, all)
}

// CreateStatus adds a status to the catalog
func CreateStatus(c echo.Context) error {
	log := logger.FromContext(c)

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	var count int64
	database.GetDB().Model(&model.OrderStatus{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Status with this name already exists"})
	}

	status := model.OrderStatus{
		Name:            req.Name,
		Icon:            req.Icon,
		Color:           req.Color,
		IsTerminal:      req.IsTerminal,
		DecrementsStock: req.DecrementsStock,
		LeasingProvider: req.LeasingProvider,
	}

	if err := statuses.Save(c.Request().Context(), &status); err != nil {
		log.Error("Failed to create status", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create status"})
	}

	log.Info("Order status created", zap.String("name", status.Name))
	return c.JSON(http.StatusCreated, status)
}

// UpdateStatus edits a status's metadata. The name is the stable key used
// by orders, so it is not renamable here.
func UpdateStatus(c echo.Context) error {
	log := logger.FromContext(c)
	name := c.Param("name")

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	var status model.OrderStatus
	if err := database.GetDB().Where("name = ?", name).First(&status).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Status not found"})
	}

	status.Icon = req.Icon
	status.Color = req.Color
	status.IsTerminal = req.IsTerminal
	status.DecrementsStock = req.DecrementsStock
	status.LeasingProvider = req.LeasingProvider

	if err := statuses.Save(c.Request().Context(), &status); err != nil {
		log.Error("Failed to update status", zap.String("name", name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update status"})
	}

	return c.JSON(http.StatusOK, status)
}

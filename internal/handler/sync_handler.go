package handler

import (
	"net/http"

	"backoffice-service/internal/catalog"
	"backoffice-service/pkg/logger"
	"backoffice-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SyncCatalog runs an on-demand reconciliation of external catalog entries
func SyncCatalog(c echo.Context) error {
	log := logger.FromContext(c)

	var entries []catalog.Entry
	if err := c.Bind(&entries); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if len(entries) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No catalog entries supplied"})
	}

	result, err := reconciler.Reconcile(c.Request().Context(), entries)
	if err != nil {
		log.Error("Catalog sync failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Catalog sync failed"})
	}

	prometheus.SyncRunsCounter.Inc()
	if len(result.Warnings) > 0 {
		prometheus.SyncWarningsCounter.Add(float64(len(result.Warnings)))
	}

	return c.JSON(http.StatusOK, result)
}
